// Package locale handles the UI language of the dashboard: the stored
// preference, Accept-Language matching and the message catalog used for
// user-facing errors.
//
// Supported languages are English (default), Hebrew, Arabic and Russian;
// Hebrew and Arabic render right to left.
//
// The catalog is an embedded YAML file with one mapping per language.
// Nested keys are addressed with dots and messages may contain %{name}
// placeholders:
//
//	cat := locale.DefaultCatalog()
//	cat.T("en", "forgot.sent", "destination", "alice@example.com")
//	cat.Message("he", err) // err from gateway.Login
package locale
