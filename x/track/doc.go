/*
Package track implements a registry of music tracks with revenue splits,
escrow deposits, proportional royalty distribution and stem credentials.

A track is registered by its owner and carries a contributor table: a list
of addresses together with their shares, expressed in basis points that
must sum to 10000. The split table can be replaced by the owner, which
bumps the royalty version of the track.

Every track controls a derived condition. The address of that condition
owns the escrow accounts of the track, so deposited funds can only be
moved by the distribution logic of this extension and never by any key
holder directly.

Distribution takes an amount from the escrow and pays every contributor
floor(amount * share / 10000) units. Rounding dust stays on the escrow
account. Either every payout is performed or none.

A stem credential is a single supply asset minted to a contributor as a
proof of their participation. The track keeps the list of all credentials
minted for it.
*/
package track
