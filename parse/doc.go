// Package parse is a recursive descent parser for preprocessed C.
//
// It tracks only what the grammar needs: which names are typedef names in
// the current scope, and the types declarators spell. Errors never stop the
// parse, a tree is returned together with the diagnostics.
//
// Glossary:
//
// Declarator
// ----------
//
// A declarator is the part of a declaration that specifies
// the name that is to be introduced into the program.
//
// e.g.
// unsigned int a, *b, **c, *const*d, *volatile*e ;
//              ^  ^^  ^^^  ^^^^^^^^  ^^^^^^^^^^^
//
// Direct Declarator
// -----------------
//
// A direct declarator is missing the pointer prefix.
//
// e.g.
// unsigned int a[32], b[];
//              ^^^^^  ^^^
//
// Abstract Declarator
// -------------------
//
// A declarator missing an identifier, as in casts, sizeof and
// parameter lists.
//
// e.g.
// (char *[4])
//       ^^^^
//
// K&R Definition
// --------------
//
// A function definition whose parameters are an identifier list, typed by
// declarations between the declarator and the body.
//
// e.g.
// int f(a, b) char *a; { ... }
//             ^^^^^^^^
package parse
