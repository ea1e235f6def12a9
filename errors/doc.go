/*
Package errors implements custom error interfaces for stanza.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Errors are categorized by
root error types created with Register. Each instance created during
runtime wraps one of the root errors, which allows error tests via the Is
method and returning the failure class to the client in a safe manner.
*/
package errors
