// Package pkgconfig reads application settings.
//
// Callers depend on the Config interface. The Viper implementation reads a
// yaml file and lets environment variables override any key, with dots in
// the key replaced by underscores (store.driver -> STORE_DRIVER).
package pkgconfig
