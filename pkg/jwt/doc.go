// Package jwt signs and validates RS256 bearer tokens for the Accord API.
//
// Tokens carry the acting partnership in the partnership_id claim and an
// optional role. Parsing and verification are delegated to
// github.com/golang-jwt/jwt/v5; this package owns key loading, claim
// defaults, and mapping library errors onto its own sentinels.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "accord.forgo.software",
//	    ExpirationMins: 60,
//	})
//
//	token, err := svc.Sign(jwt.Claims{PartnershipID: "partnership:abc", Role: jwt.RolePartnership})
//
//	claims, err := svc.Validate(token)
//	if errors.Is(err, jwt.ErrTokenExpired) {
//	    // ask the client to re-authenticate
//	}
package jwt
