package parse

/*
	file        = module? declaration* EOI
	module      = "module" ident "(" exports ")" ";"
	exports     = (ident ("," ident)*)?
	declaration = ident "=" (int | ident) ";"
*/

// File is the grammar of a source file.
func File() Parser {
	ident := Tok(Rule{Rule: RuleIdent, Of: Ident{}})
	num := Tok(Rule{Rule: RuleInt, Of: Int{}})

	exports := Tok(Rule{
		Rule: RuleExports,
		Of: Optional{List{
			Of:  ident,
			Sep: Tok(Const(",")),
		}},
	})

	module := Tok(Rule{
		Rule: RuleModule,
		Of: AllOf{
			Keyword("module"),
			ident,
			Tok(Const("(")),
			exports,
			Tok(Const(")")),
			Tok(Const(";")),
		},
	})

	decl := Tok(Rule{
		Rule: RuleDeclaration,
		Of: AllOf{
			ident,
			Tok(Const("=")),
			AnyOf{num, ident},
			Tok(Const(";")),
		},
	})

	return AllOf{
		Optional{module},
		Repeat{Of: decl},
		Tok(EOI{}),
	}
}
