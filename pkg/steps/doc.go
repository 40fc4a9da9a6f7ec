/*
Package steps ships the building blocks of extraction pipelines: fetching a
page (plain HTTP or headless browser), parsing it, asking a model to extract
fields, and validating the result against a schema.

Each step reads and writes well-known state keys (the Key constants) so they can
be wired into a graph in any order that respects their inputs. All of them
raise classified failures and leave retry and timeout handling to the
executor.
*/
package steps
