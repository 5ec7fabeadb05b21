package ports

// PayloadCopier copies the application payload into an image.
//
//go:generate go run go.uber.org/mock/mockgen -source=payload.go -destination=mocks/mock_payload.go -package=mocks
type PayloadCopier interface {
	// Copy copies src into dst, skipping ignored paths, and returns a content fingerprint.
	Copy(src, dst string, ignore []string) (string, error)
}
