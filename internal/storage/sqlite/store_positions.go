package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type positionRow struct {
	ID                    string `db:"id"`
	Name                  string `db:"name"`
	DisplayName           string `db:"display_name"`
	Description           string `db:"description"`
	Order                 int    `db:"sort_order"`
	Active                bool   `db:"active"`
	TermMonths            int    `db:"term_months"`
	CanManageUsers        bool   `db:"can_manage_users"`
	ModulePermissions     string `db:"module_permissions"`
	ShowOnPublicSite      bool   `db:"show_on_public_site"`
	WarnOnMultipleHolders bool   `db:"warn_on_multiple_holders"`
}

const positionColumns = `id, name, display_name, description, sort_order, active, term_months,
	can_manage_users, module_permissions, show_on_public_site, warn_on_multiple_holders`

func (r positionRow) position() (positions.Position, error) {
	perms, err := decodePermissions(r.ModulePermissions)
	if err != nil {
		return positions.Position{}, fmt.Errorf("position %s: %w", r.Name, err)
	}
	return positions.Position{
		ID:                    r.ID,
		Name:                  r.Name,
		DisplayName:           r.DisplayName,
		Description:           r.Description,
		Order:                 r.Order,
		Active:                r.Active,
		TermMonths:            r.TermMonths,
		CanManageUsers:        r.CanManageUsers,
		ModulePermissions:     perms,
		ShowOnPublicSite:      r.ShowOnPublicSite,
		WarnOnMultipleHolders: r.WarnOnMultipleHolders,
	}, nil
}

// Module permissions are stored as {"module": "read"|"write"}.
func encodePermissions(perms map[string]access.Level) (string, error) {
	raw := make(map[string]string, len(perms))
	for module, level := range perms {
		if level > access.LevelNone {
			raw[module] = level.String()
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode module permissions: %w", err)
	}
	return string(data), nil
}

func decodePermissions(data string) (map[string]access.Level, error) {
	raw := map[string]string{}
	if strings.TrimSpace(data) != "" {
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return nil, fmt.Errorf("decode module permissions: %w", err)
		}
	}
	out := make(map[string]access.Level, len(raw))
	for module, level := range raw {
		if parsed := access.ParseLevel(level); parsed > access.LevelNone {
			out[module] = parsed
		}
	}
	return out, nil
}

// PutPosition inserts or updates one position by ID.
func (s *Store) PutPosition(ctx context.Context, p positions.Position) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	positionID, err := requireID("position", p.ID)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("position name is required")
	}
	perms, err := encodePermissions(p.ModulePermissions)
	if err != nil {
		return err
	}
	now := s.nowMillis()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO positions (`+positionColumns+`, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   display_name = excluded.display_name,
		   description = excluded.description,
		   sort_order = excluded.sort_order,
		   active = excluded.active,
		   term_months = excluded.term_months,
		   can_manage_users = excluded.can_manage_users,
		   module_permissions = excluded.module_permissions,
		   show_on_public_site = excluded.show_on_public_site,
		   warn_on_multiple_holders = excluded.warn_on_multiple_holders,
		   updated_at = excluded.updated_at`,
		positionID, name, strings.TrimSpace(p.DisplayName), strings.TrimSpace(p.Description),
		p.Order, p.Active, p.Term(), p.CanManageUsers, perms, p.ShowOnPublicSite, p.WarnOnMultipleHolders,
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put position: %w", err)
	}
	return nil
}

// GetPosition returns one position by ID.
func (s *Store) GetPosition(ctx context.Context, id string) (positions.Position, error) {
	return s.getPosition(ctx, `id = ?`, strings.TrimSpace(id))
}

// GetPositionByName returns one position by its tag.
func (s *Store) GetPositionByName(ctx context.Context, name string) (positions.Position, error) {
	return s.getPosition(ctx, `name = ?`, strings.TrimSpace(name))
}

func (s *Store) getPosition(ctx context.Context, where string, arg any) (positions.Position, error) {
	if err := s.ready(ctx); err != nil {
		return positions.Position{}, err
	}
	var row positionRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+positionColumns+` FROM positions WHERE `+where, arg); err != nil {
		return positions.Position{}, notFound(err)
	}
	return row.position()
}

// ListPositions returns every position in display order.
func (s *Store) ListPositions(ctx context.Context) ([]positions.Position, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []positionRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+positionColumns+` FROM positions ORDER BY sort_order, display_name`); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positionsFromRows(rows)
}

func positionsFromRows(rows []positionRow) ([]positions.Position, error) {
	out := make([]positions.Position, 0, len(rows))
	for _, row := range rows {
		p, err := row.position()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// PositionNameTaken reports whether another position uses name.
func (s *Store) PositionNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var count int
	if err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM positions WHERE name = ? AND id <> ?`,
		strings.TrimSpace(name), strings.TrimSpace(excludeID),
	); err != nil {
		return false, fmt.Errorf("check position name: %w", err)
	}
	return count > 0, nil
}

// CreateAssignment records a user taking a position.
func (s *Store) CreateAssignment(ctx context.Context, a positions.Assignment) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	assignmentID, err := requireID("assignment", a.ID)
	if err != nil {
		return err
	}
	if a.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}
	var end sql.NullString
	if a.EndDate != nil {
		end = sql.NullString{String: formatDate(*a.EndDate), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO position_assignments (id, user_id, position_id, is_primary, start_date, end_date, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		assignmentID, strings.TrimSpace(a.UserID), strings.TrimSpace(a.PositionID), a.Primary,
		formatDate(a.StartDate), end, strings.TrimSpace(a.Notes), s.nowMillis(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// EndAssignment closes a current assignment on endDate.
func (s *Store) EndAssignment(ctx context.Context, id string, endDate time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE position_assignments SET end_date = ? WHERE id = ? AND end_date IS NULL`,
		formatDate(endDate), strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("end assignment: %w", err)
	}
	return requireAffected(res)
}

type assignmentRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	FirstName  string         `db:"first_name"`
	LastName   string         `db:"last_name"`
	Email      string         `db:"email"`
	PositionID string         `db:"position_id"`
	Primary    bool           `db:"is_primary"`
	StartDate  string         `db:"start_date"`
	EndDate    sql.NullString `db:"end_date"`
	Notes      string         `db:"notes"`
	TermMonths int            `db:"term_months"`
}

func (r assignmentRow) assignment() (positions.Assignment, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return positions.Assignment{}, err
	}
	a := positions.Assignment{
		ID:         r.ID,
		UserID:     r.UserID,
		UserName:   storage.User{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email}.DisplayName(),
		PositionID: r.PositionID,
		Primary:    r.Primary,
		StartDate:  start,
		Notes:      r.Notes,
		TermMonths: r.TermMonths,
	}
	if r.EndDate.Valid {
		end, err := parseDate(r.EndDate.String)
		if err != nil {
			return positions.Assignment{}, err
		}
		a.EndDate = &end
	}
	return a, nil
}

// ListHoldings returns every position with its assignments, newest first.
func (s *Store) ListHoldings(ctx context.Context) ([]positions.Holding, error) {
	all, err := s.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	var rows []assignmentRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT a.id, a.user_id, u.first_name, u.last_name, u.email, a.position_id, a.is_primary,
		        a.start_date, a.end_date, a.notes, p.term_months
		   FROM position_assignments a
		   JOIN users u ON u.id = a.user_id
		   JOIN positions p ON p.id = a.position_id
		  ORDER BY a.start_date DESC, a.created_at DESC`,
	); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	byPosition := make(map[string][]positions.Assignment, len(all))
	for _, row := range rows {
		a, err := row.assignment()
		if err != nil {
			return nil, err
		}
		byPosition[a.PositionID] = append(byPosition[a.PositionID], a)
	}
	out := make([]positions.Holding, 0, len(all))
	for _, p := range all {
		out = append(out, positions.Holding{Position: p, Assignments: byPosition[p.ID]})
	}
	return out, nil
}

// CurrentPositionsForUser returns the positions userID currently holds.
func (s *Store) CurrentPositionsForUser(ctx context.Context, userID string) ([]positions.Position, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []positionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT DISTINCT p.id, p.name, p.display_name, p.description, p.sort_order, p.active, p.term_months,
		        p.can_manage_users, p.module_permissions, p.show_on_public_site, p.warn_on_multiple_holders
		   FROM positions p
		   JOIN position_assignments a ON a.position_id = p.id
		  WHERE a.user_id = ? AND a.end_date IS NULL
		  ORDER BY p.sort_order, p.display_name`,
		strings.TrimSpace(userID),
	); err != nil {
		return nil, fmt.Errorf("list current positions: %w", err)
	}
	return positionsFromRows(rows)
}
