// Package config loads chatgate settings with viper: an optional config
// file, CHATGATE_* environment variables, defaults and a .env file. A file
// backed Config is watched and reloads in place.
package config
