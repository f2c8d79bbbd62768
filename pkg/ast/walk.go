package ast

// Walk visits every node in the tree in pre-order, calling visit once per
// node. Used by the name pool (C2) to collect every identifier already in
// use, and by the control driver (C7) to find the class owning a class body.
func Walk(prog *Program, visit func(Node)) {
	for _, s := range prog.Body {
		walkStatement(s, visit)
	}
}

func walkStatement(s Statement, visit func(Node)) {
	if s == nil {
		return
	}
	visit(s)
	switch n := s.(type) {
	case *BlockStatement:
		for _, c := range n.Body {
			walkStatement(c, visit)
		}
	case *ExpressionStatement:
		walkExpression(n.Expr, visit)
	case *VariableDeclaration:
		for _, d := range n.Declarators {
			visit(d)
			walkExpression(d.Target, visit)
			if d.Init != nil {
				walkExpression(d.Init, visit)
			}
		}
	case *IfStatement:
		walkExpression(n.Test, visit)
		walkStatement(n.Consequent, visit)
		if n.Alternate != nil {
			walkStatement(n.Alternate, visit)
		}
	case *SwitchStatement:
		walkExpression(n.Discriminant, visit)
		for _, c := range n.Cases {
			visit(c)
			if c.Test != nil {
				walkExpression(c.Test, visit)
			}
			for _, stmt := range c.Consequent {
				walkStatement(stmt, visit)
			}
		}
	case *WhileStatement:
		walkExpression(n.Test, visit)
		walkStatement(n.Body, visit)
	case *DoWhileStatement:
		walkStatement(n.Body, visit)
		walkExpression(n.Test, visit)
	case *ForStatement:
		if vd, ok := n.Init.(*VariableDeclaration); ok {
			walkStatement(vd, visit)
		} else if e, ok := n.Init.(Expression); ok && e != nil {
			walkExpression(e, visit)
		}
		if n.Test != nil {
			walkExpression(n.Test, visit)
		}
		if n.Update != nil {
			walkExpression(n.Update, visit)
		}
		walkStatement(n.Body, visit)
	case *ForOfStatement:
		walkExpression(n.Left, visit)
		walkExpression(n.Right, visit)
		walkStatement(n.Body, visit)
	case *ForInStatement:
		walkExpression(n.Left, visit)
		walkExpression(n.Right, visit)
		walkStatement(n.Body, visit)
	case *ReturnStatement:
		if n.Argument != nil {
			walkExpression(n.Argument, visit)
		}
	case *ThrowStatement:
		walkExpression(n.Argument, visit)
	case *TryStatement:
		walkStatement(n.Block, visit)
		if n.Handler != nil {
			visit(n.Handler)
			if n.Handler.Param != nil {
				visit(n.Handler.Param)
			}
			walkStatement(n.Handler.Body, visit)
		}
		if n.Finally != nil {
			walkStatement(n.Finally, visit)
		}
	case *LabeledStatement:
		visit(n.Label)
		walkStatement(n.Body, visit)
	case *ComeHereStatement:
		for _, a := range n.Args {
			walkExpression(a, visit)
		}
		walkStatement(n.Body, visit)
	case *FunctionDeclaration:
		if n.Name != nil {
			visit(n.Name)
		}
		walkParams(n.Params, visit)
		walkStatement(n.Body, visit)
	case *ClassDeclaration:
		if n.Name != nil {
			visit(n.Name)
		}
		if n.SuperClass != nil {
			walkExpression(n.SuperClass, visit)
		}
		walkClassBody(n.Body, visit)
	}
}

func walkClassBody(body *ClassBody, visit func(Node)) {
	for _, m := range body.Members {
		switch n := m.(type) {
		case *MethodDefinition:
			visit(n)
			walkExpression(n.Key, visit)
			walkParams(n.Fn.Params, visit)
			walkStatement(n.Fn.Body, visit)
		case *PropertyDefinition:
			visit(n)
			walkExpression(n.Key, visit)
			if n.Value != nil {
				walkExpression(n.Value, visit)
			}
		}
	}
}

func walkParams(params []*Parameter, visit func(Node)) {
	for _, p := range params {
		visit(p)
		walkExpression(p.Pattern, visit)
		if p.Default != nil {
			walkExpression(p.Default, visit)
		}
	}
}

func walkExpression(e Expression, visit func(Node)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *ArrayLiteral:
		for _, el := range n.Elements {
			walkExpression(el, visit)
		}
	case *ObjectLiteral:
		for _, m := range n.Properties {
			switch prop := m.(type) {
			case *ObjectProperty:
				visit(prop)
				walkExpression(prop.Key, visit)
				walkExpression(prop.Value, visit)
			case *ObjectMethod:
				visit(prop)
				walkExpression(prop.Key, visit)
				walkParams(prop.Fn.Params, visit)
				walkStatement(prop.Fn.Body, visit)
			}
		}
	case *SpreadElement:
		walkExpression(n.Argument, visit)
	case *UnaryExpression:
		walkExpression(n.Argument, visit)
	case *BinaryExpression:
		walkExpression(n.Left, visit)
		walkExpression(n.Right, visit)
	case *LogicalExpression:
		walkExpression(n.Left, visit)
		walkExpression(n.Right, visit)
	case *AssignmentExpression:
		walkExpression(n.Target, visit)
		walkExpression(n.Value, visit)
	case *ConditionalExpression:
		walkExpression(n.Test, visit)
		walkExpression(n.Consequent, visit)
		walkExpression(n.Alternate, visit)
	case *SequenceExpression:
		for _, sub := range n.Expressions {
			walkExpression(sub, visit)
		}
	case *CallExpression:
		walkExpression(n.Callee, visit)
		for _, a := range n.Arguments {
			walkExpression(a, visit)
		}
	case *NewExpression:
		walkExpression(n.Callee, visit)
		for _, a := range n.Arguments {
			walkExpression(a, visit)
		}
	case *MemberExpression:
		walkExpression(n.Object, visit)
		if n.Computed {
			walkExpression(n.Property, visit)
		}
	case *FunctionExpression:
		if n.Name != nil {
			visit(n.Name)
		}
		walkParams(n.Params, visit)
		walkStatement(n.Body, visit)
	case *ClassExpression:
		if n.Name != nil {
			visit(n.Name)
		}
		if n.SuperClass != nil {
			walkExpression(n.SuperClass, visit)
		}
		walkClassBody(n.Body, visit)
	case *AwaitExpression:
		walkExpression(n.Argument, visit)
	case *YieldExpression:
		if n.Argument != nil {
			walkExpression(n.Argument, visit)
		}
	}
}
