// Package loops assigns every data row the reduced protocol line that
// produced it and the iteration of the repeat loop it was measured in.
//
// Rows are grouped into blocks (Start through End, or a lone Single row)
// and walked in file order against a forward cursor over the reduced
// protocol. The walk is a two-state machine: flat, where each ordinary
// command consumes one block, and in-repeat, where the first iteration
// records the body of the loop and later iterations replay it.
package loops
