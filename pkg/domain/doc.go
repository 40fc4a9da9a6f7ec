/*
Package domain contains the core types of the Gleaner engine: the shared
State threaded through a run, the Step contract, transitions, the failure
taxonomy, and the execution trace.

These types are pure data and contracts. The walking logic lives in the
internal runtime; adapters (stores, HTTP, metrics) live under pkg/adapters.
*/
package domain
