package vm

import (
	"fmt"
	"strings"

	"stackc/types"
)

// operand widths per opcode: 1 = byte, 2 = short
var operandWidths = map[OpCode][]int{
	OP_PUSH:          {2},
	OP_PUSH_DEFAULT:  {2},
	OP_LDARG:         {1},
	OP_STARG:         {1},
	OP_LDARGA:        {1},
	OP_LDLOC:         {1},
	OP_STLOC:         {1},
	OP_LDLOCA:        {1},
	OP_LDFLD:         {1},
	OP_LDFLDA:        {1},
	OP_STFLD:         {1},
	OP_NEWOBJ:        {2},
	OP_NEWARR:        {2},
	OP_MAKE_ARRAY:    {2, 2},
	OP_ARRAY_RESIZE:  {2},
	OP_ADD:           {1},
	OP_SUB:           {1},
	OP_MUL:           {1},
	OP_DIV:           {1},
	OP_MOD:           {1},
	OP_NEG:           {1},
	OP_CONV:          {1},
	OP_LT:            {1},
	OP_LE:            {1},
	OP_GT:            {1},
	OP_GE:            {1},
	OP_JUMP:          {2},
	OP_JUMP_IF_FALSE: {2},
	OP_JUMP_IF_TRUE:  {2},
	OP_CALL_HOST:     {2, 1},
	OP_MAKE_CLOSURE:  {2},
	OP_CALL_CLOSURE:  {1},
	OP_ENTER_FINALLY: {2},
	OP_ENTER_FAULT:   {2},
	OP_LEAVE:         {1, 2},
}

// InstructionLen returns the encoded length of the instruction at ip
func InstructionLen(code []byte, ip int) int {
	op := OpCode(code[ip])
	switch op {
	case OP_SWITCH_TABLE:
		size := int(code[ip+1])<<8 | int(code[ip+2])
		return 3 + 2*size
	case OP_ENTER_TRY:
		n := 2
		clauses := int(code[ip+1])
		for i := 0; i < clauses; i++ {
			codes := int(code[ip+n])
			n += 1 + codes + 1 + 2 + 2
		}
		return n
	}
	n := 1
	for _, w := range operandWidths[op] {
		n += w
	}
	return n
}

// Disassemble renders a unit and every unit of its module
func Disassemble(p *Program) string {
	var sb strings.Builder
	units := []*Program{p}
	if p.Module != nil {
		units = p.Module.Units
	}
	for i, u := range units {
		if i > 0 {
			sb.WriteByte('\n')
		}
		disassembleUnit(&sb, i, u)
	}
	return sb.String()
}

func disassembleUnit(sb *strings.Builder, index int, p *Program) {
	fmt.Fprintf(sb, "unit %d %s %s params=%d locals=%d stack=%d\n",
		index, p.Name, p.Type, p.NumParams, p.NumLocals, p.MaxStack)
	line := 0
	for ip := 0; ip < len(p.Code); {
		if l := p.LineForIP(ip); l != line {
			line = l
			fmt.Fprintf(sb, "  ; line %d\n", line)
		}
		n := InstructionLen(p.Code, ip)
		fmt.Fprintf(sb, "  %04d %s\n", ip, describe(p, p.Code[ip:ip+n]))
		ip += n
	}
}

func describe(p *Program, ins []byte) string {
	op := OpCode(ins[0])
	short := func(at int) int { return int(ins[at])<<8 | int(ins[at+1]) }

	switch op {
	case OP_PUSH:
		return fmt.Sprintf("%-14s %s", op, p.Constants[short(1)])
	case OP_PUSH_DEFAULT, OP_NEWOBJ, OP_NEWARR, OP_ARRAY_RESIZE:
		return fmt.Sprintf("%-14s %s", op, p.Types[short(1)])
	case OP_MAKE_ARRAY:
		return fmt.Sprintf("%-14s %s %d", op, p.Types[short(1)], short(3))
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD, OP_NEG, OP_CONV, OP_LT, OP_LE, OP_GT, OP_GE:
		return fmt.Sprintf("%-14s %s", op, types.Kind(ins[1]))
	case OP_CALL_HOST:
		name := fmt.Sprintf("#%d", short(1))
		if p.Module != nil && p.Module.Host != nil {
			if m, ok := p.Module.Host.Method(short(1)); ok {
				name = m.Name
			}
		}
		return fmt.Sprintf("%-14s %s %d", op, name, ins[3])
	case OP_SWITCH_TABLE:
		size := short(1)
		targets := make([]string, size)
		for i := range targets {
			targets[i] = fmt.Sprintf("%04d", short(3+2*i))
		}
		return fmt.Sprintf("%-14s %d [%s]", op, size, strings.Join(targets, " "))
	case OP_ENTER_TRY:
		var parts []string
		at := 2
		for i := 0; i < int(ins[1]); i++ {
			codes := make([]string, ins[at])
			for j := range codes {
				codes[j] = types.ErrorCode(ins[at+1+j]).String()
			}
			at += 1 + len(codes)
			v := int(ins[at]) - 1
			filter, handler := short(at+1), short(at+3)
			at += 5
			clause := fmt.Sprintf("{%s var=%d handler=%04d", strings.Join(codes, ","), v, handler)
			if filter != NoTarget {
				clause += fmt.Sprintf(" filter=%04d", filter)
			}
			parts = append(parts, clause+"}")
		}
		return fmt.Sprintf("%-14s %s", op, strings.Join(parts, " "))
	}

	widths := operandWidths[op]
	if len(widths) == 0 {
		return op.String()
	}
	args := make([]string, 0, len(widths))
	at := 1
	for _, w := range widths {
		if w == 1 {
			args = append(args, fmt.Sprintf("%d", ins[at]))
		} else if op == OP_JUMP || op == OP_JUMP_IF_FALSE || op == OP_JUMP_IF_TRUE ||
			op == OP_ENTER_FINALLY || op == OP_ENTER_FAULT || op == OP_LEAVE {
			args = append(args, fmt.Sprintf("%04d", short(at)))
		} else {
			args = append(args, fmt.Sprintf("%d", short(at)))
		}
		at += w
	}
	return fmt.Sprintf("%-14s %s", op, strings.Join(args, " "))
}
