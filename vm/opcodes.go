package vm

// OpCode represents a bytecode instruction. Operands follow the opcode
// as single bytes or 2-byte big-endian shorts. Jump targets are
// absolute code offsets.
type OpCode byte

// Stack Operations
const (
	OP_PUSH         OpCode = iota // Push constant from pool [const:short]
	OP_POP                        // Discard top of stack
	OP_DUP                        // Duplicate top of stack
	OP_SWAP                       // Exchange the two top values
	OP_PUSH_NULL                  // Push null
	OP_PUSH_DEFAULT               // Push the default of a type [type:short]
)

// Slot Operations
const (
	OP_LDARG  OpCode = OP_PUSH_DEFAULT + 1 + iota // Push argument [index:byte]
	OP_STARG                                      // Pop and store argument [index:byte]
	OP_LDARGA                                     // Push address of argument [index:byte]
	OP_LDLOC                                      // Push local [index:byte]
	OP_STLOC                                      // Pop and store local [index:byte]
	OP_LDLOCA                                     // Push address of local [index:byte]
)

// Member and Indirect Operations
const (
	OP_LDFLD  OpCode = OP_LDLOCA + 1 + iota // Pop target; push field [index:byte]
	OP_LDFLDA                               // Pop target; push field address [index:byte]
	OP_STFLD                                // Pop value, target; store field [index:byte]
	OP_LDIND                                // Pop address; push value
	OP_STIND                                // Pop value, address; store
	OP_NEWOBJ                               // Push new instance [type:short]
)

// Array Operations
const (
	OP_NEWARR       OpCode = OP_NEWOBJ + 1 + iota // Pop length; push array [type:short]
	OP_MAKE_ARRAY                                 // Pop N items; push array [type:short, count:short]
	OP_LDLEN                                      // Pop array or string; push length
	OP_LDELEM                                     // Pop index, array; push element
	OP_LDELEMA                                    // Pop index, array; push element address
	OP_STELEM                                     // Pop value, index, array; store element
	OP_IN_RANGE                                   // Pop index, array; push index within bounds
	OP_ARRAY_RESIZE                               // Pop length, address; grow stored array [type:short]
)

// Optional Operations
const (
	OP_OPT_HAS  OpCode = OP_ARRAY_RESIZE + 1 + iota // Pop optional; push presence
	OP_OPT_VAL                                      // Pop optional; push underlying value
	OP_OPT_WRAP                                     // Pop value; push present optional
)

// Arithmetic Operations; the operand selects the numeric kind
const (
	OP_ADD OpCode = OP_OPT_WRAP + 1 + iota // Pop b, a; push a + b [kind:byte]
	OP_SUB                                 // Pop b, a; push a - b [kind:byte]
	OP_MUL                                 // Pop b, a; push a * b [kind:byte]
	OP_DIV                                 // Pop b, a; push a / b [kind:byte]
	OP_MOD                                 // Pop b, a; push a % b [kind:byte]
	OP_NEG                                 // Pop a; push -a [kind:byte]
	OP_CONV                                // Pop a; push a converted [kind:byte]
)

// Bitwise Operations
const (
	OP_BITAND OpCode = OP_CONV + 1 + iota // Pop b, a; push a & b
	OP_BITOR                              // Pop b, a; push a | b
	OP_BITXOR                             // Pop b, a; push a ^ b
	OP_BITNOT                             // Pop a; push ^a
	OP_SHL                                // Pop b, a; push a << b
	OP_SHR                                // Pop b, a; push a >> b
)

// Comparison Operations
const (
	OP_EQ      OpCode = OP_SHR + 1 + iota // Pop b, a; push a == b
	OP_NE                                 // Pop b, a; push a != b
	OP_LT                                 // Pop b, a; push a < b [kind:byte]
	OP_LE                                 // Pop b, a; push a <= b [kind:byte]
	OP_GT                                 // Pop b, a; push a > b [kind:byte]
	OP_GE                                 // Pop b, a; push a >= b [kind:byte]
	OP_NOT                                // Pop a; push !a
	OP_IS_NULL                            // Pop a; push a is null or absent
)

// Control Flow
const (
	OP_JUMP          OpCode = OP_IS_NULL + 1 + iota // Jump [target:short]
	OP_JUMP_IF_FALSE                                // Pop; jump if false [target:short]
	OP_JUMP_IF_TRUE                                 // Pop; jump if true [target:short]
	OP_RETURN                                       // Pop and return
	OP_HASH                                         // Pop a; push its hash
	OP_SWITCH_TABLE                                 // Pop hash; jump to bucket [size:short, targets:short...]
)

// Calls
const (
	OP_CALL_HOST    OpCode = OP_SWITCH_TABLE + 1 + iota // Pop args; call host method [id:short, argc:byte]
	OP_MAKE_CLOSURE                                     // Pop env; push closure [unit:short]
	OP_CALL_CLOSURE                                     // Pop args, closure; call [argc:byte]
)

// Protected Regions
const (
	OP_ENTER_TRY     OpCode = OP_CALL_CLOSURE + 1 + iota // Push catch handler [clauses:byte, clause...]
	OP_ENTER_FINALLY                                     // Push finally handler [handler:short]
	OP_ENTER_FAULT                                       // Push fault handler [handler:short]
	OP_LEAVE                                             // Pop handlers, running finally blocks [count:byte, target:short]
	OP_END_FINALLY                                       // Resume the pending completion
	OP_END_FILTER                                        // Pop filter verdict
	OP_THROW                                             // Pop error; raise
)

// OpCodeNames maps opcodes to their string names for debugging
var OpCodeNames = map[OpCode]string{
	OP_PUSH:          "PUSH",
	OP_POP:           "POP",
	OP_DUP:           "DUP",
	OP_SWAP:          "SWAP",
	OP_PUSH_NULL:     "PUSH_NULL",
	OP_PUSH_DEFAULT:  "PUSH_DEFAULT",
	OP_LDARG:         "LDARG",
	OP_STARG:         "STARG",
	OP_LDARGA:        "LDARGA",
	OP_LDLOC:         "LDLOC",
	OP_STLOC:         "STLOC",
	OP_LDLOCA:        "LDLOCA",
	OP_LDFLD:         "LDFLD",
	OP_LDFLDA:        "LDFLDA",
	OP_STFLD:         "STFLD",
	OP_LDIND:         "LDIND",
	OP_STIND:         "STIND",
	OP_NEWOBJ:        "NEWOBJ",
	OP_NEWARR:        "NEWARR",
	OP_MAKE_ARRAY:    "MAKE_ARRAY",
	OP_LDLEN:         "LDLEN",
	OP_LDELEM:        "LDELEM",
	OP_LDELEMA:       "LDELEMA",
	OP_STELEM:        "STELEM",
	OP_IN_RANGE:      "IN_RANGE",
	OP_ARRAY_RESIZE:  "ARRAY_RESIZE",
	OP_OPT_HAS:       "OPT_HAS",
	OP_OPT_VAL:       "OPT_VAL",
	OP_OPT_WRAP:      "OPT_WRAP",
	OP_ADD:           "ADD",
	OP_SUB:           "SUB",
	OP_MUL:           "MUL",
	OP_DIV:           "DIV",
	OP_MOD:           "MOD",
	OP_NEG:           "NEG",
	OP_CONV:          "CONV",
	OP_BITAND:        "BITAND",
	OP_BITOR:         "BITOR",
	OP_BITXOR:        "BITXOR",
	OP_BITNOT:        "BITNOT",
	OP_SHL:           "SHL",
	OP_SHR:           "SHR",
	OP_EQ:            "EQ",
	OP_NE:            "NE",
	OP_LT:            "LT",
	OP_LE:            "LE",
	OP_GT:            "GT",
	OP_GE:            "GE",
	OP_NOT:           "NOT",
	OP_IS_NULL:       "IS_NULL",
	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE:  "JUMP_IF_TRUE",
	OP_RETURN:        "RETURN",
	OP_HASH:          "HASH",
	OP_SWITCH_TABLE:  "SWITCH_TABLE",
	OP_CALL_HOST:     "CALL_HOST",
	OP_MAKE_CLOSURE:  "MAKE_CLOSURE",
	OP_CALL_CLOSURE:  "CALL_CLOSURE",
	OP_ENTER_TRY:     "ENTER_TRY",
	OP_ENTER_FINALLY: "ENTER_FINALLY",
	OP_ENTER_FAULT:   "ENTER_FAULT",
	OP_LEAVE:         "LEAVE",
	OP_END_FINALLY:   "END_FINALLY",
	OP_END_FILTER:    "END_FILTER",
	OP_THROW:         "THROW",
}

// String returns the name of an opcode
func (op OpCode) String() string {
	if name, ok := OpCodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// NoTarget marks an absent filter in an ENTER_TRY clause
const NoTarget = 0xFFFF

// StackEffect returns the fixed operand-stack change of an opcode, or
// false when the effect depends on its operands (calls, MAKE_ARRAY) or
// ends the instruction stream (RETURN, THROW).
func StackEffect(op OpCode) (int, bool) {
	switch op {
	case OP_PUSH, OP_DUP, OP_PUSH_NULL, OP_PUSH_DEFAULT, OP_LDARG, OP_LDARGA,
		OP_LDLOC, OP_LDLOCA, OP_NEWOBJ:
		return 1, true
	case OP_POP, OP_STARG, OP_STLOC, OP_LDELEM, OP_LDELEMA, OP_IN_RANGE,
		OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD,
		OP_BITAND, OP_BITOR, OP_BITXOR, OP_SHL, OP_SHR,
		OP_EQ, OP_NE, OP_LT, OP_LE, OP_GT, OP_GE,
		OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE, OP_SWITCH_TABLE, OP_END_FILTER:
		return -1, true
	case OP_STFLD, OP_STIND, OP_ARRAY_RESIZE:
		return -2, true
	case OP_STELEM:
		return -3, true
	case OP_SWAP, OP_LDFLD, OP_LDFLDA, OP_LDIND, OP_NEWARR, OP_LDLEN,
		OP_OPT_HAS, OP_OPT_VAL, OP_OPT_WRAP, OP_NEG, OP_CONV, OP_BITNOT,
		OP_NOT, OP_IS_NULL, OP_HASH, OP_MAKE_CLOSURE, OP_JUMP,
		OP_ENTER_TRY, OP_ENTER_FINALLY, OP_ENTER_FAULT, OP_LEAVE, OP_END_FINALLY:
		return 0, true
	}
	return 0, false
}
