// Package lang is a small language-engineering framework for the diagram
// DSLs.
//
// A language is a set of [Services] (grammar, token builder, lexer, value
// converter and parser) assembled by a [Builder] from three ordered layers:
//
//  1. framework defaults ([DefaultModule])
//  2. modules generated from the grammar
//  3. hand-written overrides
//
// Later layers replace earlier ones slot by slot. Every language is built on
// [SharedServices], which own the file system access and the
// [ServiceRegistry] languages register themselves in:
//
//	shared, err := lang.NewSharedServices(lang.DefaultSharedModule(lang.EmptyFileSystem))
//	services, err := lang.NewBuilder(shared).
//	    Defaults(lang.DefaultModule()).
//	    Generated(generatedModule).
//	    Overrides(myModule).
//	    Build()
//	err = shared.ServiceRegistry.Register(services)
//
// # Lexing
//
// Token patterns use regexp2 so terminals can use lookahead. The lexer tries
// token types in the order the [TokenBuilder] returns them and takes the first
// non-empty match, so order matters: whitespace rules come first, then
// keywords longest first, then the remaining terminals.
package lang
