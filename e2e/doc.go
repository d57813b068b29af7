//go:build e2e

// Package e2e runs the calculator scenarios in real browsers.
//
// These tests are isolated from the standard test suite via build tags.
// They need the browsers for the selected engines: rod downloads Chromium
// when none is found, playwright engines need `playwright install`, and
// webdriver engines need a WebDriver server at -webdriver.
//
// Running E2E tests against the probe page only:
//
//	go test -tags=e2e ./e2e/...
//
// Running the calculator scenarios against a served checkout:
//
//	go run ./cmd/calctest serve --dir ../factorio-web-calc &
//	go test -tags=e2e ./e2e/... -url http://localhost:8001/calc.html -engines rod,playwright-firefox
//
// Running all tests except E2E:
//
//	go test ./...
//
// Test isolation:
// Each test starts its own probe server on a random port and every case
// launches its own browser instance.
package e2e
