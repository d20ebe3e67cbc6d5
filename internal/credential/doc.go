// Package credential rotates through an ordered list of API credentials.
// A call that fails because the active credential ran out of quota is
// retried with the next one; once every credential has failed the pool stays
// exhausted for the lifetime of the process.
package credential
