// Package web hosts the browser-facing meeting manager: sign-in, the
// protected /app/ modules the registry discovers and the public share pages.
package web
