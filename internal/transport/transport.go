// SPDX-License-Identifier: MIT
package transport

import "errors"

// Transport defines a generic interface for sending rendered frames or other
// processed data. Implementations must be safe for concurrent use and must
// not block the caller for long: the video thread sends every frame.
type Transport interface {
	Send(data any) error
	Close() error
}

// Multi fans every Send out to several transports.
type Multi []Transport

// Send forwards data to every transport and joins their errors.
func (m Multi) Send(data any) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure Multi satisfies the interface at compile time.
var _ Transport = Multi(nil)
