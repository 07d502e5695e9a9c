// Package secret resolves credential references without pulling in a
// vault client.
//
// Two mechanisms cooperate:
//   - ExpandEnvStrict substitutes ${VAR} forms and fails on unset names
//   - Source and Resolve follow "secretref:" indirection
//
// A reference names the environment variable that actually holds the
// credential:
//
//	ENGRAM_API_KEY=secretref:env:PROD_ENGRAM_KEY
package secret
