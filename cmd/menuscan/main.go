// Package main provides the entry point for the menuscan CLI.
//
// menuscan crawls restaurant websites and collects the text of their menus,
// hours and policies from HTML pages, PDF menus and menu photos.
//
// Usage:
//
//	menuscan crawl https://luigis.com
//	menuscan batch --list businesses.csv
//	menuscan show luigis
//
// See --help for all available options.
package main

// main is the entry point for menuscan.
func main() {
	Execute()
}
