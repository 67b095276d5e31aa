package gdma

// ETMEvent is an event a GDMA channel can publish to the event task matrix.
type ETMEvent uint8

// ETMTask is a task the event task matrix can trigger on a GDMA channel.
type ETMTask uint8

const (
	ETMEventEOF ETMEvent = iota
	numETMEvents
)

const (
	ETMTaskStart ETMTask = iota
	numETMTasks
)

// Event and task identifiers of the GDMA channels in the SoC ETM map.
//
// These are placeholders: only the table layout is fixed here, not the
// numeric IDs. Replace them with the values of the chip's ETM source map
// (soc_etm_source.h) before routing ETM events on real hardware.
const (
	etmEvtInSucEOFCh0 = 153 + iota
	etmEvtInSucEOFCh1
	etmEvtInSucEOFCh2
	etmEvtOutEOFCh0
	etmEvtOutEOFCh1
	etmEvtOutEOFCh2
)

const (
	etmTaskInStartCh0 = 162 + iota
	etmTaskInStartCh1
	etmTaskInStartCh2
	etmTaskOutStartCh0
	etmTaskOutStartCh1
	etmTaskOutStartCh2
)

var (
	rxETMEvents = [NumGroups][PairsPerGroup][numETMEvents]uint32{{
		{ETMEventEOF: etmEvtInSucEOFCh0},
		{ETMEventEOF: etmEvtInSucEOFCh1},
		{ETMEventEOF: etmEvtInSucEOFCh2},
	}}
	txETMEvents = [NumGroups][PairsPerGroup][numETMEvents]uint32{{
		{ETMEventEOF: etmEvtOutEOFCh0},
		{ETMEventEOF: etmEvtOutEOFCh1},
		{ETMEventEOF: etmEvtOutEOFCh2},
	}}
	rxETMTasks = [NumGroups][PairsPerGroup][numETMTasks]uint32{{
		{ETMTaskStart: etmTaskInStartCh0},
		{ETMTaskStart: etmTaskInStartCh1},
		{ETMTaskStart: etmTaskInStartCh2},
	}}
	txETMTasks = [NumGroups][PairsPerGroup][numETMTasks]uint32{{
		{ETMTaskStart: etmTaskOutStartCh0},
		{ETMTaskStart: etmTaskOutStartCh1},
		{ETMTaskStart: etmTaskOutStartCh2},
	}}
)

func etmIndexOK(group, channel int, n, limit uint8) bool {
	return group >= 0 && group < NumGroups &&
		channel >= 0 && channel < PairsPerGroup &&
		n < limit
}

// RXETMEventID returns the ETM event ID published by RX channel channel of
// group group. It returns ErrETMIndex for any index out of range.
func RXETMEventID(group, channel int, ev ETMEvent) (uint32, error) {
	if !etmIndexOK(group, channel, uint8(ev), uint8(numETMEvents)) {
		return 0, ErrETMIndex
	}
	return rxETMEvents[group][channel][ev], nil
}

// TXETMEventID returns the ETM event ID published by a TX channel.
func TXETMEventID(group, channel int, ev ETMEvent) (uint32, error) {
	if !etmIndexOK(group, channel, uint8(ev), uint8(numETMEvents)) {
		return 0, ErrETMIndex
	}
	return txETMEvents[group][channel][ev], nil
}

// RXETMTaskID returns the ETM task ID that drives an RX channel.
func RXETMTaskID(group, channel int, task ETMTask) (uint32, error) {
	if !etmIndexOK(group, channel, uint8(task), uint8(numETMTasks)) {
		return 0, ErrETMIndex
	}
	return rxETMTasks[group][channel][task], nil
}

// TXETMTaskID returns the ETM task ID that drives a TX channel.
func TXETMTaskID(group, channel int, task ETMTask) (uint32, error) {
	if !etmIndexOK(group, channel, uint8(task), uint8(numETMTasks)) {
		return 0, ErrETMIndex
	}
	return txETMTasks[group][channel][task], nil
}
