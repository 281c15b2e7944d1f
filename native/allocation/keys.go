package allocation

import "encoding/binary"

const (
	keyAdmin          = "alloc:admin"
	keyCycleState     = "alloc:cycle"
	prefixRegistry    = "alloc:registry:"
	prefixUsageRecord = "alloc:usage:"
	prefixCycleTotal  = "alloc:total:"
)

func registryKey(account [20]byte) []byte {
	buf := make([]byte, 0, len(prefixRegistry)+len(account))
	buf = append(buf, prefixRegistry...)
	return append(buf, account[:]...)
}

func usageKey(cycle uint64, account [20]byte) []byte {
	buf := make([]byte, 0, len(prefixUsageRecord)+8+len(account))
	buf = append(buf, prefixUsageRecord...)
	buf = binary.BigEndian.AppendUint64(buf, cycle)
	return append(buf, account[:]...)
}

func cycleTotalKey(cycle uint64) []byte {
	buf := make([]byte, 0, len(prefixCycleTotal)+8)
	buf = append(buf, prefixCycleTotal...)
	return binary.BigEndian.AppendUint64(buf, cycle)
}
