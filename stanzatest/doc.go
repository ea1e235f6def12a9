/*
Package stanzatest provides mocks and helpers for testing message handlers
and extensions. Implementations here favour simplicity over completeness,
they are not meant to be used outside of tests.
*/
package stanzatest
