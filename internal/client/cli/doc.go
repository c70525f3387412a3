// Package cli provides the interactive gophauth command-line client.
//
// App reads commands line by line (see runREPL) and drives a gRPC session:
// signup or login stores a bearer token that later commands such as me,
// update and delete send along. Passwords are read without echo and wiped
// after use.
package cli
