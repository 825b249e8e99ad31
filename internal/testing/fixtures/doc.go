// Package fixtures provides test data factories for the Accord API.
//
// # Partnerships
//
//	f := fixtures.New(store, store)
//	p := f.CreatePartnership(t, fixtures.WithCompletion(0.3))
//
// # Answers
//
// Answers(goal, energy) builds a complete survey whose Intent and Chemistry
// categories vary with its arguments while the rest stay identical.
package fixtures
