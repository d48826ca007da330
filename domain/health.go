// client/domain/health.go
package domain

const (
	StatusDisconnected = "disconnected"
	connectionFailed   = "Connection failed"
)

type HealthStatus struct {
	FastAPIStatus       string `json:"fastapi_status"`
	DjangoBackendStatus string `json:"django_backend_status"`
	Message             string `json:"message,omitempty"`
}

// Disconnected is the snapshot shown when the health probe itself fails.
func Disconnected() HealthStatus {
	return HealthStatus{
		FastAPIStatus:       StatusDisconnected,
		DjangoBackendStatus: StatusDisconnected,
		Message:             connectionFailed,
	}
}
