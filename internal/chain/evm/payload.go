package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	addressType = mustNewType("address")
	stringType  = mustNewType("string")
	uint8Type   = mustNewType("uint8")

	// (token, name, symbol, decimals, "priceOracleId,imageUri")
	tokenMetadataArgs = abi.Arguments{
		{Name: "token", Type: addressType},
		{Name: "name", Type: stringType},
		{Name: "symbol", Type: stringType},
		{Name: "decimals", Type: uint8Type},
		{Name: "extra", Type: stringType},
	}

	supportMessageArgs = abi.Arguments{
		{Name: "message", Type: stringType},
	}
)

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("new abi type %s: %v", t, err))
	}
	return typ
}

// TokenMetadata is the decoded TokenAdded payload.
type TokenMetadata struct {
	Token         string
	Name          string
	Symbol        string
	Decimals      uint8
	PriceOracleID string
	ImageURI      string
}

// SupportMessage is the decoded SupportReceived payload.
type SupportMessage struct {
	Username string
	Message  string
}

// Raw re-joins the two fields the way they are stored on the support row.
func (m SupportMessage) Raw() string {
	return m.Username + "," + m.Message
}

// DecodeTokenAddedPayload decodes the metadata tuple carried in a TokenAdded
// log. The last string holds the price oracle id and the image URI joined
// by a comma.
func DecodeTokenAddedPayload(data []byte) (TokenMetadata, error) {
	values, err := tokenMetadataArgs.Unpack(data)
	if err != nil {
		return TokenMetadata{}, &DecodeError{Payload: "token_metadata", Err: err}
	}
	if len(values) != len(tokenMetadataArgs) {
		return TokenMetadata{}, &DecodeError{Payload: "token_metadata", Err: fmt.Errorf("expected %d values, got %d", len(tokenMetadataArgs), len(values))}
	}

	token, ok1 := values[0].(common.Address)
	name, ok2 := values[1].(string)
	symbol, ok3 := values[2].(string)
	decimals, ok4 := values[3].(uint8)
	extra, ok5 := values[4].(string)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return TokenMetadata{}, &DecodeError{Payload: "token_metadata", Err: fmt.Errorf("unexpected value types")}
	}

	oracleID, imageURI, _ := strings.Cut(extra, ",")
	return TokenMetadata{
		Token:         token.Hex(),
		Name:          name,
		Symbol:        symbol,
		Decimals:      decimals,
		PriceOracleID: oracleID,
		ImageURI:      imageURI,
	}, nil
}

// EncodeTokenAddedPayload is the inverse of DecodeTokenAddedPayload.
func EncodeTokenAddedPayload(m TokenMetadata) ([]byte, error) {
	extra := m.PriceOracleID
	if m.ImageURI != "" {
		extra += "," + m.ImageURI
	}
	return tokenMetadataArgs.Pack(common.HexToAddress(m.Token), m.Name, m.Symbol, m.Decimals, extra)
}

// DecodeSupportMessage decodes the ABI string carried in a SupportReceived
// log and splits it on the first comma. Without a comma the whole string is
// the username and the message is empty.
func DecodeSupportMessage(data []byte) (SupportMessage, error) {
	values, err := supportMessageArgs.Unpack(data)
	if err != nil {
		return SupportMessage{}, &DecodeError{Payload: "support_message", Err: err}
	}
	raw, ok := values[0].(string)
	if !ok {
		return SupportMessage{}, &DecodeError{Payload: "support_message", Err: fmt.Errorf("unexpected value type %T", values[0])}
	}
	username, message, _ := strings.Cut(raw, ",")
	return SupportMessage{Username: username, Message: message}, nil
}

// EncodeSupportMessage ABI-encodes a raw "username,message" string.
func EncodeSupportMessage(raw string) ([]byte, error) {
	return supportMessageArgs.Pack(raw)
}
