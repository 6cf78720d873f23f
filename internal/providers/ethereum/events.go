package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
)

// marketplaceABIJSON holds the subset of the SupeRare V1 ABI the indexer reads
const marketplaceABIJSON = `[
	{"anonymous":false,"name":"Bid","type":"event","inputs":[
		{"indexed":true,"name":"_bidder","type":"address"},
		{"indexed":true,"name":"_amount","type":"uint256"},
		{"indexed":true,"name":"_tokenId","type":"uint256"}]},
	{"anonymous":false,"name":"AcceptBid","type":"event","inputs":[
		{"indexed":true,"name":"_bidder","type":"address"},
		{"indexed":true,"name":"_seller","type":"address"},
		{"indexed":false,"name":"_amount","type":"uint256"},
		{"indexed":true,"name":"_tokenId","type":"uint256"}]},
	{"anonymous":false,"name":"CancelBid","type":"event","inputs":[
		{"indexed":true,"name":"_bidder","type":"address"},
		{"indexed":true,"name":"_amount","type":"uint256"},
		{"indexed":true,"name":"_tokenId","type":"uint256"}]},
	{"anonymous":false,"name":"Sold","type":"event","inputs":[
		{"indexed":true,"name":"_buyer","type":"address"},
		{"indexed":true,"name":"_seller","type":"address"},
		{"indexed":false,"name":"_amount","type":"uint256"},
		{"indexed":true,"name":"_tokenId","type":"uint256"}]},
	{"anonymous":false,"name":"SalePriceSet","type":"event","inputs":[
		{"indexed":true,"name":"_tokenId","type":"uint256"},
		{"indexed":true,"name":"_price","type":"uint256"}]},
	{"anonymous":false,"name":"Transfer","type":"event","inputs":[
		{"indexed":true,"name":"_from","type":"address"},
		{"indexed":true,"name":"_to","type":"address"},
		{"indexed":false,"name":"_tokenId","type":"uint256"}]},
	{"constant":true,"name":"tokenURI","type":"function","stateMutability":"view","payable":false,
		"inputs":[{"name":"_tokenId","type":"uint256"}],
		"outputs":[{"name":"","type":"string"}]}
]`

var marketplaceABI = mustParseABI(marketplaceABIJSON)

// Event signatures
var (
	bidEventSignature          = crypto.Keccak256Hash([]byte("Bid(address,uint256,uint256)"))
	acceptBidEventSignature    = crypto.Keccak256Hash([]byte("AcceptBid(address,address,uint256,uint256)"))
	cancelBidEventSignature    = crypto.Keccak256Hash([]byte("CancelBid(address,uint256,uint256)"))
	soldEventSignature         = crypto.Keccak256Hash([]byte("Sold(address,address,uint256,uint256)"))
	salePriceSetEventSignature = crypto.Keccak256Hash([]byte("SalePriceSet(uint256,uint256)"))

	// Transfer(address indexed _from, address indexed _to, uint256 _tokenId)
	// The V1 contract emits tokenId as data (3 topics); ERC721 emits it as a topic (4 topics).
	transferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

// eventTypes maps each subscribed signature to its marketplace event type
var eventTypes = map[common.Hash]domain.EventType{
	transferEventSignature:     domain.EventTypeTransfer,
	bidEventSignature:          domain.EventTypeBid,
	acceptBidEventSignature:    domain.EventTypeAcceptBid,
	cancelBidEventSignature:    domain.EventTypeCancelBid,
	soldEventSignature:         domain.EventTypeSold,
	salePriceSetEventSignature: domain.EventTypeSalePriceSet,
}

// MarketplaceEventSignatures returns the topic0 filter of every subscribed event
func MarketplaceEventSignatures() []common.Hash {
	return []common.Hash{
		transferEventSignature,
		bidEventSignature,
		acceptBidEventSignature,
		cancelBidEventSignature,
		soldEventSignature,
		salePriceSetEventSignature,
	}
}

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid marketplace ABI: %v", err))
	}
	return parsed
}

// decodeLogFields decodes the indexed and non-indexed arguments of a log into one map keyed by argument name
func decodeLogFields(vLog types.Log) (map[string]interface{}, error) {
	if vLog.Topics[0] == transferEventSignature {
		return decodeTransferFields(vLog)
	}

	event, err := marketplaceABI.EventByID(vLog.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedEvent, vLog.Topics[0].Hex())
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(vLog.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%w: %s expects %d topics, got %d", domain.ErrMalformedLog, event.Name, len(indexed)+1, len(vLog.Topics))
	}

	fields := make(map[string]interface{})
	if len(event.Inputs.NonIndexed()) > 0 {
		if err := marketplaceABI.UnpackIntoMap(fields, event.Name, vLog.Data); err != nil {
			return nil, fmt.Errorf("%w: failed to unpack %s data: %v", domain.ErrMalformedLog, event.Name, err)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, vLog.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s topics: %v", domain.ErrMalformedLog, event.Name, err)
	}

	return fields, nil
}

func decodeTransferFields(vLog types.Log) (map[string]interface{}, error) {
	fields := make(map[string]interface{})

	switch len(vLog.Topics) {
	case 3:
		if len(vLog.Data) < 32 {
			return nil, fmt.Errorf("%w: Transfer without token id data", domain.ErrMalformedLog)
		}
		fields["_tokenId"] = new(big.Int).SetBytes(vLog.Data[0:32])
	case 4:
		fields["_tokenId"] = new(big.Int).SetBytes(vLog.Topics[3].Bytes())
	default:
		return nil, fmt.Errorf("%w: Transfer expects 3 or 4 topics, got %d", domain.ErrMalformedLog, len(vLog.Topics))
	}

	fields["_from"] = common.BytesToAddress(vLog.Topics[1].Bytes())
	fields["_to"] = common.BytesToAddress(vLog.Topics[2].Bytes())
	return fields, nil
}

func addressField(fields map[string]interface{}, name string) (*string, error) {
	address, ok := fields[name].(common.Address)
	if !ok {
		return nil, fmt.Errorf("missing address field %s", name)
	}
	hex := address.Hex()
	return &hex, nil
}

func uintField(fields map[string]interface{}, name string) (string, error) {
	value, ok := fields[name].(*big.Int)
	if !ok || value == nil {
		return "", fmt.Errorf("missing uint256 field %s", name)
	}
	return value.String(), nil
}
