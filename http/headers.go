package http

const (
	// The header that carries the id of a Kubb client.
	HeaderClientID = "Kubb-Client-Id"

	XForwardedForHeaderKey           = "X-Forwarded-For"
	CloudFrontCountryNameHeaderKey   = "CloudFront-Viewer-Country-Name"
	CloudFrontViewerAddressHeaderKey = "CloudFront-Viewer-Address"
)
