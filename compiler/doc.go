/*

Process of compilation

Program Text ->
	parse ->
Syntax Pairs (parse.Pair) ->
	build ->
Abstract Syntax Tree (ast) ->
	analyze ->
Symbols (frozen name -> function index table) ->
	generate ->
WebAssembly Module (wasm) ->
	encode ->
Binary Object (obj)

Binary Object ->
	decode ->
WebAssembly Module ->
	dump ->
Text

*/
package compiler
