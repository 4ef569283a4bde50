// Package value implements the runtime's tagged Value representation and
// the borrow-counted cell that backs every heap-allocated value.
//
// A Value is a small tagged union (see value.go): inline scalars live by
// copy, everything else is a shared reference to a Cell (cell.go). This
// mirrors how the teacher's VM keeps values as a flat interface{} stack
// slot, except here aliasing of structural and host values is explicit
// and runtime-checked rather than left to Go's garbage collector.
package value

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Hash is a 128-bit identifier for items, types, and protocols. It is
// derived deterministically from a fully-qualified path so that it is
// stable across builds and across processes compiling the same program
// independently — two hosts that compile the same unit must agree on
// every type and protocol hash without negotiating.
//
// uuid.UUID is used purely as a convenient, comparable, 128-bit value
// carrier. Hashes are never produced by uuid.New (which is
// random/time-based); they are always derived with HashPath.
type Hash = uuid.UUID

// NilHash is the zero value, used to mean "no type" in contexts where a
// Hash field is optional (e.g. an inline Value has no Rtti and reports
// NilHash from Type() unless it self-describes via its Kind).
var NilHash Hash

// HashPath derives a stable Hash from a fully-qualified item path, such
// as "std::string" or "mygame::Player" or a protocol name like "ADD".
// The same path always yields the same Hash, in this process or any
// other, which is what lets a Unit compiled on one host be loaded and
// dispatched against on another.
func HashPath(path string) Hash {
	sum := fnv.New128a()
	_, _ = sum.Write([]byte(path))
	var h Hash
	copy(h[:], sum.Sum(nil))
	return h
}

// Well-known protocol hashes (spec §4.4.3). Protocol identifiers are
// ordinary Hash values computed from a fixed name, exactly like any
// other item path — there is nothing structurally special about a
// "protocol" hash versus a "type" hash, only the table they're looked up
// in (RuntimeContext's protocol-handler table is keyed by (type Hash,
// protocol Hash) pairs).
var (
	ProtocolAdd        = HashPath("protocol::ADD")
	ProtocolSub        = HashPath("protocol::SUB")
	ProtocolMul        = HashPath("protocol::MUL")
	ProtocolDiv        = HashPath("protocol::DIV")
	ProtocolRem        = HashPath("protocol::REM")
	ProtocolBitAnd     = HashPath("protocol::BIT_AND")
	ProtocolBitOr      = HashPath("protocol::BIT_OR")
	ProtocolBitXor     = HashPath("protocol::BIT_XOR")
	ProtocolShl        = HashPath("protocol::SHL")
	ProtocolShr        = HashPath("protocol::SHR")
	ProtocolNeg        = HashPath("protocol::NEG")
	ProtocolNot        = HashPath("protocol::NOT")
	ProtocolAddAssign  = HashPath("protocol::ADD_ASSIGN")
	ProtocolSubAssign  = HashPath("protocol::SUB_ASSIGN")
	ProtocolMulAssign  = HashPath("protocol::MUL_ASSIGN")
	ProtocolDivAssign  = HashPath("protocol::DIV_ASSIGN")
	ProtocolRemAssign  = HashPath("protocol::REM_ASSIGN")
	ProtocolPartialEq  = HashPath("protocol::PARTIAL_EQ")
	ProtocolEq         = HashPath("protocol::EQ")
	ProtocolPartialCmp = HashPath("protocol::PARTIAL_CMP")
	ProtocolCmp        = HashPath("protocol::CMP")
	ProtocolHash       = HashPath("protocol::HASH")
	ProtocolClone      = HashPath("protocol::CLONE")
	ProtocolIntoIter   = HashPath("protocol::INTO_ITER")
	ProtocolNext       = HashPath("protocol::NEXT")
	ProtocolNextBack   = HashPath("protocol::NEXT_BACK")
	ProtocolSizeHint   = HashPath("protocol::SIZE_HINT")
	ProtocolLen        = HashPath("protocol::LEN")
	ProtocolNth        = HashPath("protocol::NTH")
	ProtocolIndexGet   = HashPath("protocol::INDEX_GET")
	ProtocolIndexSet   = HashPath("protocol::INDEX_SET")
	ProtocolAs         = HashPath("protocol::AS")
	ProtocolTry        = HashPath("protocol::TRY")
	ProtocolDebugFmt   = HashPath("protocol::DEBUG_FMT")
	ProtocolDisplayFmt = HashPath("protocol::DISPLAY_FMT")
	ProtocolPoll       = HashPath("protocol::POLL")
	ProtocolPush       = HashPath("protocol::PUSH")
	ProtocolPop        = HashPath("protocol::POP")
	ProtocolInsert     = HashPath("protocol::INSERT")
	ProtocolRemove     = HashPath("protocol::REMOVE")
	ProtocolSort       = HashPath("protocol::SORT")
	ProtocolSortBy     = HashPath("protocol::SORT_BY")
)

// Well-known inline-type hashes, used by is/as (spec §4.4.2) and by the
// default protocol implementations (spec §4.4.3 step 3) to recognize
// which built-in class a Value's Type() belongs to.
var (
	TypeUnit    = HashPath("type::unit")
	TypeBool    = HashPath("type::bool")
	TypeChar    = HashPath("type::char")
	TypeInt     = HashPath("type::i64")
	TypeUint    = HashPath("type::u64")
	TypeFloat   = HashPath("type::f64")
	TypeOrdering = HashPath("type::ordering")
	TypeByte    = HashPath("type::byte")
	TypeHash    = HashPath("type::hash")
	TypeString  = HashPath("type::string")
	TypeBytes   = HashPath("type::bytes")
	TypeFunction = HashPath("type::function")
	TypeRange    = HashPath("type::range")
	TypeVec      = HashPath("type::vec")
)
