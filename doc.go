/*
Package stanza defines the common interfaces that tie the engine together:
messages and transactions, handlers, the key-value store contracts and the
condition based addressing scheme.

The actual functionality lives in the extensions under x/. The track
extension implements the revenue split registry together with escrow
deposits, proportional distribution and stem credential minting. The token
extension implements the asset custody that the track extension builds on.

State is addressed through Conditions. A Condition describes who may
authorize an action and deterministically maps to an Address. Since a
Condition may be derived from pure data instead of a public key, entities
like a track can own accounts without any private key existing. Handlers
prove control over such accounts by presenting the Condition itself.
*/
package stanza
