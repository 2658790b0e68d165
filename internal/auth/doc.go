// Package auth holds the stateless authentication primitives: password
// strength rules, password hashing and signed access tokens.
package auth
