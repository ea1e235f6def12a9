/*
Package token implements asset custody with derived accounts.

An asset is declared once, together with the authority that is allowed to
mint it and an optional maximum supply. Units of an asset are held on
accounts. An account address is derived from the pair of the owning address
and the asset ID, so every owner has at most one account per asset and the
account location can always be computed without a lookup.

Movements between accounts are performed by the Controller. A move must be
authorized by the owner of the source account. The owner can be a key
backed address as well as an address derived from a condition, which is how
other extensions operate escrow accounts they control.
*/
package token
