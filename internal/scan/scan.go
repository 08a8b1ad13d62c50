// Package scan is the code-capture collaborator. A Provider captures an
// opaque frame payload from a device; the Decoder extracts the coupon code
// carried in it. No real image decoding happens here: frames already carry
// the decoded payload text.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"opscore/pkg/domain"
)

const serviceName = "scan"

// payloadPrefix marks frames produced by the in-house code generator.
const payloadPrefix = "opscore://coupon/"

// ErrPermissionDenied is reported by providers when the capture device is
// blocked by the platform.
var ErrPermissionDenied = errors.New("capture permission denied")

// Provider captures one frame from the device.
type Provider interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Capture obtains a frame, translating provider failures into user-facing
// errors. Permission denials carry remediation guidance.
func Capture(ctx context.Context, p Provider) ([]byte, error) {
	if p == nil {
		return nil, domain.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("no capture device configured"),
		}
	}
	frame, err := p.Capture(ctx)
	if errors.Is(err, ErrPermissionDenied) {
		return nil, domain.ExternalServiceError{
			Service:     serviceName,
			Err:         err,
			Remediation: "allow camera access in the device settings and retry",
		}
	}
	if err != nil {
		return nil, domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	return frame, nil
}

// Decoder extracts coupon codes from captured frames.
type Decoder struct{}

// Decode returns the code carried by the frame. Prefixed payloads are
// unwrapped; bare payloads are treated as the code itself.
func (Decoder) Decode(frame []byte) (string, error) {
	payload := strings.TrimSpace(string(frame))
	if payload == "" {
		return "", domain.ExternalServiceError{
			Service: serviceName,
			Err:     fmt.Errorf("empty frame"),
		}
	}
	if code, ok := strings.CutPrefix(payload, payloadPrefix); ok {
		if code == "" {
			return "", domain.ExternalServiceError{
				Service: serviceName,
				Err:     fmt.Errorf("malformed payload %q", payload),
			}
		}
		return code, nil
	}
	return payload, nil
}

// EncodePayload renders a code as the frame payload the generator would
// produce. Used by display surfaces and tests.
func EncodePayload(code string) []byte {
	return []byte(payloadPrefix + code)
}
