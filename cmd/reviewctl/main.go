// Package main provides reviewctl, a command-line front end to the review
// scraper that runs without the HTTP API.
package main

func main() {
	Execute()
}
