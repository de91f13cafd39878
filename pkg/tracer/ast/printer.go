package ast

import (
	"strings"
)

// String renders an expression or pattern in reader syntax.
func String(n Node) string {
	var sb strings.Builder
	write(&sb, n)
	return sb.String()
}

func write(sb *strings.Builder, n Node) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	}
	switch Kind(n) {
	case KindVariable:
		name, _ := VariableName(n)
		sb.WriteString(name)
	case KindLiteral:
		v, ok := LiteralValue(n)
		if !ok {
			sb.WriteString("<literal?>")
			return
		}
		sb.WriteString(v.Inspect())
	case KindApplication:
		writeList(sb, "(", "", Parts(n), ")")
	case KindBlock:
		writeList(sb, "(", "block", Parts(n), ")")
	case KindTuple:
		writeList(sb, "[", "", Parts(n), "]")
	case KindGen:
		writeRoles(sb, "gen", n, RolePattern, RoleBody)
	case KindIf:
		writeRoles(sb, "if", n, RolePredicate, RoleThen, RoleElse)
	case KindDefinition:
		writeRoles(sb, "define", n, RolePattern, RoleValue)
	case KindWithAddress:
		writeRoles(sb, "with-address", n, RoleTag, RoleExpression)
	case KindThis:
		sb.WriteString("(this)")
	default:
		sb.WriteString("<")
		sb.WriteString(Kind(n))
		sb.WriteString("?>")
	}
}

func writeList(sb *strings.Builder, open, head string, parts []Node, close string) {
	sb.WriteString(open)
	sb.WriteString(head)
	for i, p := range parts {
		if i > 0 || head != "" {
			sb.WriteByte(' ')
		}
		write(sb, p)
	}
	sb.WriteString(close)
}

func writeRoles(sb *strings.Builder, head string, n Node, roles ...string) {
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, role := range roles {
		sb.WriteByte(' ')
		part, ok := Part(n, role)
		if !ok {
			sb.WriteString("<missing " + role + ">")
			continue
		}
		write(sb, part)
	}
	sb.WriteByte(')')
}
