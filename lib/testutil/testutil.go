package testutil

import (
	"fmt"
	"testing"
	"vicstats-backend/lib/telemetry"
)

type ServiceParams struct {
	Name string
}

// sets up the shared test environment (telemetry) for a service test,
// returning a cleanup function to defer
func SetupService(t testing.TB, params ServiceParams) func() {
	return telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
}
