// Package testing provides testing utilities for the dataaccess module.
//
// # Mocks
//
// The mocks subpackage provides testify-based mock implementations of the
// collaborator ports:
//   - Transport (http.Transport) with progress simulation
//   - Credential store (credentials.Store)
//   - Activity reporter (activity.Reporter)
//
// # Fixtures
//
// The fixtures subpackage provides pre-configured mocks and response builders
// for common scenarios:
//   - JSON envelope responses, with or without rotation headers
//   - Connectivity failures by error code
//   - Transports that fail a number of times before succeeding
//
// # Usage
//
//	import (
//		"github.com/gaborage/dataaccess/testing/mocks"
//		"github.com/gaborage/dataaccess/testing/fixtures"
//	)
package testing
