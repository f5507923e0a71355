// Package config loads the snownode configuration file.
//
// The file is YAML and is read once at process start. Every field has a
// default (see Default), so a minimal file only needs Wi-Fi credentials
// and a webhook:
//
//	version: 1
//	wifi:
//	  ssid: greenhouse
//	webhook:
//	  url: https://collector.example.com/hooks/snow
//	cycle:
//	  deployed: true
//	  interval_seconds: 600
//
// # Configuration File Location
//
// The default path is /etc/snownode/config.yaml. Set SNOWNODE_CONFIG or pass
// --config to use another file.
//
// # Security
//
// The Wi-Fi passphrase may be kept out of the file entirely by setting
// SNOWNODE_WIFI_PASSWORD, which overrides wifi.password. Save never writes
// the passphrase back to disk.
package config
