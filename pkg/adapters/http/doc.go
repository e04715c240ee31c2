/*
Package http exposes the evaluation protocol over HTTP.

Client implements ports.Transport by posting serialized expressions to
{base}/v1/{op}. NewHandler serves the same protocol from a local stub that
validates and summarizes expressions instead of evaluating them, which is what
`lattice serve` runs for development and tests.

Request body:

	{"expression": <wire tree>, "params": {"color": "ABCDEF"}}

Responses are {"mapid": "...", "token": "..."} for mapid and {"result": ...} for value.
*/
package http
