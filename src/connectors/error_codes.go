package connectors

import "fmt"

// MexcErrorCodes maps MEXC spot v3 error codes to human-readable messages.
var MexcErrorCodes = map[int]string{
	-2011:  "UNKNOWN_ORDER_SENT",       // Cancel of an order the engine does not know
	-1121:  "INVALID_SYMBOL",           // Symbol not supported
	400:    "API_KEY_REQUIRED",         // Missing API key header
	401:    "NO_AUTHORITY",             // Key lacks permission
	602:    "SIGNATURE_VERIFY_FAILED",  // Bad signature or wrong secret
	700001: "API_KEY_IP_RESTRICTED",    // Request IP not whitelisted
	700002: "SIGNATURE_INVALID",        // Signature for this request is not valid
	700003: "TIMESTAMP_OUTSIDE_WINDOW", // timestamp outside recvWindow
	700004: "PARAM_ORDER_CONFLICT",     // orderId and origClientOrderId both empty
	700006: "IP_NOT_WHITELISTED",       // IP not on the key whitelist
	10072:  "INVALID_ACCESS_KEY",       // Access key does not exist
	10101:  "INSUFFICIENT_BALANCE",     // Not enough free quote or base
	30000:  "SYMBOL_SUSPENDED",         // Trading suspended for the symbol
	30002:  "MIN_TRANSACTION_VOLUME",   // Notional below the symbol minimum
	30004:  "INSUFFICIENT_POSITION",    // Not enough base to sell
	30005:  "OVERSOLD",                 // Sell exceeds position
	30010:  "PRICE_OUT_OF_RANGE",       // Price outside the allowed band
	30014:  "INVALID_SYMBOL_PARAM",     // Symbol parameter malformed
	30016:  "TRADING_DISABLED",         // Trading disabled for the account
	30018:  "MARKET_ORDER_DISABLED",    // Market orders disabled
	30019:  "OPEN_ORDERS_EXCEEDED",     // Too many open orders on the symbol
	30020:  "RESTRICTED_SYMBOL",        // Symbol restricted for API trading
	30021:  "INVALID_SYMBOL_NOT_FOUND", // Symbol not found
	30026:  "INVALID_ORDER_IDS",        // Cancel of unknown order ids
	30027:  "MAX_PRICE_REACHED",        // Price above the symbol maximum
	30028:  "MIN_PRICE_REACHED",        // Price below the symbol minimum
	30029:  "MAX_ORDER_QTY_REACHED",    // Quantity above the symbol maximum
	30032:  "MIN_ORDER_QTY_REACHED",    // Quantity below the symbol minimum
	30041:  "MAX_OPEN_ORDERS_REACHED",  // Account-wide open order cap
}

// GetErrorMsg returns a human-readable message for a given MEXC error code.
// If the code is unknown, returns a generic message including the code.
func GetErrorMsg(code int) string {
	if msg, ok := MexcErrorCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_MEXC_ERROR_%d", code)
}
