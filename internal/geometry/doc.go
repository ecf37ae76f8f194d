// Package geometry turns matched text spans into drawable rectangles.
// Adjacent word rectangles on the same visual line merge into one
// rectangle; a multi-line highlight yields one rectangle per line,
// matching how highlighting renders in a viewer.
package geometry
