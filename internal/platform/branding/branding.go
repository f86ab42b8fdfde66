// Package branding holds the product name shown when a meeting has not been
// named yet.
package branding

// AppName is the product name.
const AppName = "Easier Softer Meeting Manager"
