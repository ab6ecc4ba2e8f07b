package bundle

import (
	"errors"
	"fmt"
)

// ErrUnsupportedArchitecture is returned for architecture tokens other than
// x86_64 and arm64.
var ErrUnsupportedArchitecture = errors.New("unsupported architecture")

// Architecture is a Lambda instruction set architecture token.
type Architecture string

const (
	// X86_64 is the Lambda x86_64 architecture.
	X86_64 Architecture = "x86_64"
	// ARM64 is the Lambda arm64 (Graviton) architecture.
	ARM64 Architecture = "arm64"
)

// Architectures lists the supported architectures.
func Architectures() []Architecture {
	return []Architecture{X86_64, ARM64}
}

// ParseArchitecture converts a token to an Architecture.
func ParseArchitecture(s string) (Architecture, error) {
	switch a := Architecture(s); a {
	case X86_64, ARM64:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, s)
	}
}

// Valid reports whether a is a supported architecture.
func (a Architecture) Valid() bool {
	return a == X86_64 || a == ARM64
}

func (a Architecture) String() string {
	return string(a)
}

// DotnetRID returns the architecture part of the .NET runtime identifier:
// "x64" for x86_64, the token itself otherwise.
func (a Architecture) DotnetRID() string {
	if a == X86_64 {
		return "x64"
	}
	return string(a)
}

// RustTarget returns the Rust target triple for Lambda's Amazon Linux hosts.
func (a Architecture) RustTarget() string {
	if a == ARM64 {
		return "aarch64-unknown-linux-gnu"
	}
	return "x86_64-unknown-linux-gnu"
}

// GOARCH returns the Go architecture name.
func (a Architecture) GOARCH() string {
	if a == ARM64 {
		return "arm64"
	}
	return "amd64"
}

// Variant is a .NET packaging variant.
type Variant string

const (
	// Plain is a framework-dependent build.
	Plain Variant = ""
	// AOT is a native ahead-of-time compiled build.
	AOT Variant = "aot"
	// R2R is a ReadyToRun (pre-JIT) build.
	R2R Variant = "r2r"
)

// ParseVariant converts a token ("", "plain", "aot", "r2r") to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "plain":
		return Plain, nil
	case "aot":
		return AOT, nil
	case "r2r":
		return R2R, nil
	default:
		return "", fmt.Errorf("unknown variant %q", s)
	}
}

func (v Variant) String() string {
	if v == Plain {
		return "plain"
	}
	return string(v)
}
