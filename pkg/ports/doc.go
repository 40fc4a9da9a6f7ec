/*
Package ports declares the interfaces between the Gleaner core and its
adapters: run persistence, model clients, and page fetch backends.

The engine consumes these contracts and owns nothing about their internals;
concrete implementations live under pkg/adapters, pkg/llm, and pkg/steps.
*/
package ports
