package mirror

type AccountInfo struct {
	Account    string         `json:"account"`
	Alias      string         `json:"alias"`
	EVMAddress string         `json:"evm_address"`
	Key        map[string]any `json:"key"`
	Memo       string         `json:"memo"`
	Deleted    bool           `json:"deleted"`

	MaxAutomaticTokenAssociations int32 `json:"max_automatic_token_associations"`

	CreatedTimestamp string `json:"created_timestamp"`
}

type TokenRelationship struct {
	TokenID              string `json:"token_id"`
	Balance              uint64 `json:"balance"`
	Decimals             uint32 `json:"decimals"`
	AutomaticAssociation bool   `json:"automatic_association"`
	FreezeStatus         string `json:"freeze_status"`
	KYCStatus            string `json:"kyc_status"`
	CreatedTimestamp     string `json:"created_timestamp"`
}

type tokenRelationshipsResponse struct {
	Tokens []TokenRelationship `json:"tokens"`
	Links  struct {
		Next string `json:"next"`
	} `json:"links"`
}
