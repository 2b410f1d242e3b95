// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import "fmt"

// BindError occurs when the server fails to bind its listening socket,
// for example because the port is already in use or requires elevated
// privileges.
type BindError struct {
	Addr  string
	Cause error
}

// Error implements the error interface.
func (e BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %s", e.Addr, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Unwrap.
func (e BindError) Unwrap() error {
	return e.Cause
}

// TLSMaterialError occurs when the certificate and private key files
// configured for HTTPS cannot be loaded. It is always reported before
// any socket is bound.
type TLSMaterialError struct {
	CertFile string
	KeyFile  string
	Cause    error
}

// Error implements the error interface.
func (e TLSMaterialError) Error() string {
	return fmt.Sprintf("failed to load tls material (cert %q, key %q): %s", e.CertFile, e.KeyFile, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Unwrap.
func (e TLSMaterialError) Unwrap() error {
	return e.Cause
}
