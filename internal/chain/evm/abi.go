package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/oyen-dev/streamfund-backend/internal/domain/event"
)

// contractABI lists the StreamFund contract events the indexer consumes.
const contractABI = `[
	{"type":"event","name":"SupportReceived","anonymous":false,"inputs":[
		{"name":"streamer","type":"address","indexed":true},
		{"name":"from","type":"address","indexed":true},
		{"name":"token","type":"address","indexed":true},
		{"name":"chain","type":"uint256","indexed":false},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"data","type":"bytes","indexed":false}]},
	{"type":"event","name":"FeeCollectorChanged","anonymous":false,"inputs":[
		{"name":"prevCollector","type":"address","indexed":true},
		{"name":"newCollector","type":"address","indexed":true},
		{"name":"chain","type":"uint256","indexed":false}]},
	{"type":"event","name":"TokenAdded","anonymous":false,"inputs":[
		{"name":"tokenAddress","type":"address","indexed":true},
		{"name":"chain","type":"uint256","indexed":false},
		{"name":"decimals","type":"uint8","indexed":false},
		{"name":"data","type":"bytes","indexed":false}]},
	{"type":"event","name":"TokenRemoved","anonymous":false,"inputs":[
		{"name":"tokenAddress","type":"address","indexed":true},
		{"name":"chain","type":"uint256","indexed":false}]}
]`

// ContractABI is the parsed event ABI of the StreamFund contract.
var ContractABI = mustParseABI(contractABI)

var watchedEvents = []event.Name{
	event.NameSupportReceived,
	event.NameFeeCollectorChanged,
	event.NameTokenAdded,
	event.NameTokenRemoved,
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse contract abi: %v", err))
	}
	return parsed
}

// EventTopics returns the topic0 hashes of every consumed event, in a form
// usable as the first position of a log filter.
func EventTopics() []common.Hash {
	topics := make([]common.Hash, 0, len(watchedEvents))
	for _, name := range watchedEvents {
		topics = append(topics, ContractABI.Events[string(name)].ID)
	}
	return topics
}

// EventTopic returns the topic0 hash of the named event.
func EventTopic(name event.Name) common.Hash {
	return ContractABI.Events[string(name)].ID
}
