package services

import (
	"fmt"
	"strings"
	"time"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/shipment"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/optional"
)

var deliveryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDeliveryDate accepts an RFC 3339 timestamp or a bare calendar date (UTC).
func parseDeliveryDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range deliveryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// RegisterShipmentInput is the flat admin registration payload.
type RegisterShipmentInput struct {
	SenderName           string  `json:"senderName"`
	SenderEmail          string  `json:"senderEmail"`
	SenderPhone          string  `json:"senderPhone"`
	SenderAddress        string  `json:"senderAddress"`
	SenderCity           string  `json:"senderCity"`
	SenderCountry        string  `json:"senderCountry"`
	SenderZipCode        *string `json:"senderZipCode,omitempty"`
	SenderCompanyName    *string `json:"senderCompanyName,omitempty"`
	SenderAlternatePhone *string `json:"senderAlternatePhone,omitempty"`

	ReceiverName           string  `json:"receiverName"`
	ReceiverEmail          string  `json:"receiverEmail"`
	ReceiverPhone          string  `json:"receiverPhone"`
	ReceiverAddress        string  `json:"receiverAddress"`
	ReceiverCity           string  `json:"receiverCity"`
	ReceiverCountry        string  `json:"receiverCountry"`
	ReceiverZipCode        *string `json:"receiverZipCode,omitempty"`
	ReceiverCompanyName    *string `json:"receiverCompanyName,omitempty"`
	ReceiverAlternatePhone *string `json:"receiverAlternatePhone,omitempty"`

	PackageWeightKg          float64  `json:"packageWeightKg"`
	PackageDimensions        string   `json:"packageDimensions"`
	PackageDescription       string   `json:"packageDescription"`
	PackageDeclaredValue     *float64 `json:"packageDeclaredValue,omitempty"`
	PackageQuantity          *int     `json:"packageQuantity,omitempty"`
	PackageIsFragile         bool     `json:"packageIsFragile"`
	PackageRequiresSignature bool     `json:"packageRequiresSignature"`

	OriginAddress string  `json:"originAddress"`
	OriginCity    string  `json:"originCity"`
	OriginCountry string  `json:"originCountry"`
	OriginZipCode *string `json:"originZipCode,omitempty"`

	DestinationAddress string  `json:"destinationAddress"`
	DestinationCity    string  `json:"destinationCity"`
	DestinationCountry string  `json:"destinationCountry"`
	DestinationZipCode *string `json:"destinationZipCode,omitempty"`

	EstimatedDelivery string `json:"estimatedDelivery"`
}

func allPresent(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// toShipment validates the payload group by group and builds an unsaved
// shipment. The tracking id, status and registration time are left to the caller.
func (in RegisterShipmentInput) toShipment(now time.Time) (*types.Shipment, error) {
	if !allPresent(in.SenderName, in.SenderEmail, in.SenderPhone, in.SenderAddress, in.SenderCity, in.SenderCountry) {
		return nil, apierr.Validation("All sender fields are required")
	}
	if !allPresent(in.ReceiverName, in.ReceiverEmail, in.ReceiverPhone, in.ReceiverAddress, in.ReceiverCity, in.ReceiverCountry) {
		return nil, apierr.Validation("All receiver fields are required")
	}
	if in.PackageWeightKg <= 0 || !allPresent(in.PackageDimensions, in.PackageDescription) {
		return nil, apierr.Validation("Package details are required")
	}
	if in.PackageDeclaredValue != nil && *in.PackageDeclaredValue < 0 {
		return nil, apierr.Validation("Declared value cannot be negative")
	}
	quantity := 1
	if in.PackageQuantity != nil {
		if *in.PackageQuantity < 1 {
			return nil, apierr.Validation("Package quantity must be at least 1")
		}
		quantity = *in.PackageQuantity
	}
	if !allPresent(in.OriginAddress, in.OriginCity, in.OriginCountry) {
		return nil, apierr.Validation("Origin address is required")
	}
	if !allPresent(in.DestinationAddress, in.DestinationCity, in.DestinationCountry) {
		return nil, apierr.Validation("Destination address is required")
	}
	eta, ok := parseDeliveryDate(in.EstimatedDelivery)
	if !ok || !eta.After(now) {
		return nil, apierr.Validation("Valid future estimated delivery date is required")
	}

	return &types.Shipment{
		Sender: types.Person{
			Name:           strings.TrimSpace(in.SenderName),
			Email:          normalizeEmail(in.SenderEmail),
			Phone:          strings.TrimSpace(in.SenderPhone),
			Address:        strings.TrimSpace(in.SenderAddress),
			City:           strings.TrimSpace(in.SenderCity),
			Country:        strings.TrimSpace(in.SenderCountry),
			ZipCode:        trimPtr(in.SenderZipCode),
			CompanyName:    trimPtr(in.SenderCompanyName),
			AlternatePhone: trimPtr(in.SenderAlternatePhone),
		},
		Receiver: types.Person{
			Name:           strings.TrimSpace(in.ReceiverName),
			Email:          normalizeEmail(in.ReceiverEmail),
			Phone:          strings.TrimSpace(in.ReceiverPhone),
			Address:        strings.TrimSpace(in.ReceiverAddress),
			City:           strings.TrimSpace(in.ReceiverCity),
			Country:        strings.TrimSpace(in.ReceiverCountry),
			ZipCode:        trimPtr(in.ReceiverZipCode),
			CompanyName:    trimPtr(in.ReceiverCompanyName),
			AlternatePhone: trimPtr(in.ReceiverAlternatePhone),
		},
		Package: types.PackageInfo{
			WeightKg:          in.PackageWeightKg,
			Dimensions:        strings.TrimSpace(in.PackageDimensions),
			Description:       strings.TrimSpace(in.PackageDescription),
			DeclaredValue:     in.PackageDeclaredValue,
			Quantity:          quantity,
			IsFragile:         in.PackageIsFragile,
			RequiresSignature: in.PackageRequiresSignature,
		},
		Origin: types.Address{
			Address: strings.TrimSpace(in.OriginAddress),
			City:    strings.TrimSpace(in.OriginCity),
			Country: strings.TrimSpace(in.OriginCountry),
			ZipCode: trimPtr(in.OriginZipCode),
		},
		Destination: types.Address{
			Address: strings.TrimSpace(in.DestinationAddress),
			City:    strings.TrimSpace(in.DestinationCity),
			Country: strings.TrimSpace(in.DestinationCountry),
			ZipCode: trimPtr(in.DestinationZipCode),
		},
		EstimatedDelivery: eta,
	}, nil
}

// UpdateShipmentInput is a sparse patch. Omitted fields are left untouched;
// null clears a nullable column and is rejected for required ones.
type UpdateShipmentInput struct {
	SenderName           optional.Value[string] `json:"senderName"`
	SenderEmail          optional.Value[string] `json:"senderEmail"`
	SenderPhone          optional.Value[string] `json:"senderPhone"`
	SenderAddress        optional.Value[string] `json:"senderAddress"`
	SenderCity           optional.Value[string] `json:"senderCity"`
	SenderCountry        optional.Value[string] `json:"senderCountry"`
	SenderZipCode        optional.Value[string] `json:"senderZipCode"`
	SenderCompanyName    optional.Value[string] `json:"senderCompanyName"`
	SenderAlternatePhone optional.Value[string] `json:"senderAlternatePhone"`

	ReceiverName           optional.Value[string] `json:"receiverName"`
	ReceiverEmail          optional.Value[string] `json:"receiverEmail"`
	ReceiverPhone          optional.Value[string] `json:"receiverPhone"`
	ReceiverAddress        optional.Value[string] `json:"receiverAddress"`
	ReceiverCity           optional.Value[string] `json:"receiverCity"`
	ReceiverCountry        optional.Value[string] `json:"receiverCountry"`
	ReceiverZipCode        optional.Value[string] `json:"receiverZipCode"`
	ReceiverCompanyName    optional.Value[string] `json:"receiverCompanyName"`
	ReceiverAlternatePhone optional.Value[string] `json:"receiverAlternatePhone"`

	PackageWeightKg          optional.Value[float64] `json:"packageWeightKg"`
	PackageDimensions        optional.Value[string]  `json:"packageDimensions"`
	PackageDescription       optional.Value[string]  `json:"packageDescription"`
	PackageDeclaredValue     optional.Value[float64] `json:"packageDeclaredValue"`
	PackageQuantity          optional.Value[int]     `json:"packageQuantity"`
	PackageIsFragile         optional.Value[bool]    `json:"packageIsFragile"`
	PackageRequiresSignature optional.Value[bool]    `json:"packageRequiresSignature"`

	OriginAddress optional.Value[string] `json:"originAddress"`
	OriginCity    optional.Value[string] `json:"originCity"`
	OriginCountry optional.Value[string] `json:"originCountry"`
	OriginZipCode optional.Value[string] `json:"originZipCode"`

	DestinationAddress optional.Value[string] `json:"destinationAddress"`
	DestinationCity    optional.Value[string] `json:"destinationCity"`
	DestinationCountry optional.Value[string] `json:"destinationCountry"`
	DestinationZipCode optional.Value[string] `json:"destinationZipCode"`

	Status            optional.Value[string]         `json:"status"`
	EstimatedDelivery optional.Value[string]         `json:"estimatedDelivery"`
	CurrentLocation   optional.Value[types.Location] `json:"currentLocation"`
}

// patchBuilder collects column writes and stops at the first invalid field.
type patchBuilder struct {
	cols map[string]interface{}
	err  error
}

func newPatchBuilder() *patchBuilder {
	return &patchBuilder{cols: map[string]interface{}{}}
}

func (p *patchBuilder) requiredText(col, field string, v optional.Value[string], normalize func(string) string) {
	if p.err != nil || !v.IsSet() {
		return
	}
	raw, ok := v.Get()
	if !ok || strings.TrimSpace(raw) == "" {
		p.err = apierr.Validation(fmt.Sprintf("%s cannot be empty", field))
		return
	}
	p.cols[col] = normalize(raw)
}

func (p *patchBuilder) nullableText(col string, v optional.Value[string]) {
	if p.err != nil || !v.IsSet() {
		return
	}
	raw, ok := v.Get()
	if !ok {
		p.cols[col] = nil
		return
	}
	if trimmed := trimPtr(&raw); trimmed != nil {
		p.cols[col] = *trimmed
	} else {
		p.cols[col] = nil
	}
}

func (p *patchBuilder) flag(col, field string, v optional.Value[bool]) {
	if p.err != nil || !v.IsSet() {
		return
	}
	b, ok := v.Get()
	if !ok {
		p.err = apierr.Validation(fmt.Sprintf("%s cannot be null", field))
		return
	}
	p.cols[col] = b
}

func (in UpdateShipmentInput) fields() []bool {
	return []bool{
		in.SenderName.IsSet(), in.SenderEmail.IsSet(), in.SenderPhone.IsSet(), in.SenderAddress.IsSet(),
		in.SenderCity.IsSet(), in.SenderCountry.IsSet(), in.SenderZipCode.IsSet(), in.SenderCompanyName.IsSet(),
		in.SenderAlternatePhone.IsSet(),
		in.ReceiverName.IsSet(), in.ReceiverEmail.IsSet(), in.ReceiverPhone.IsSet(), in.ReceiverAddress.IsSet(),
		in.ReceiverCity.IsSet(), in.ReceiverCountry.IsSet(), in.ReceiverZipCode.IsSet(), in.ReceiverCompanyName.IsSet(),
		in.ReceiverAlternatePhone.IsSet(),
		in.PackageWeightKg.IsSet(), in.PackageDimensions.IsSet(), in.PackageDescription.IsSet(),
		in.PackageDeclaredValue.IsSet(), in.PackageQuantity.IsSet(), in.PackageIsFragile.IsSet(),
		in.PackageRequiresSignature.IsSet(),
		in.OriginAddress.IsSet(), in.OriginCity.IsSet(), in.OriginCountry.IsSet(), in.OriginZipCode.IsSet(),
		in.DestinationAddress.IsSet(), in.DestinationCity.IsSet(), in.DestinationCountry.IsSet(),
		in.DestinationZipCode.IsSet(),
		in.Status.IsSet(), in.EstimatedDelivery.IsSet(), in.CurrentLocation.IsSet(),
	}
}

// IsEmpty reports whether no field was supplied at all.
func (in UpdateShipmentInput) IsEmpty() bool {
	for _, set := range in.fields() {
		if set {
			return false
		}
	}
	return true
}

// columns validates the patch and returns the shipment column writes.
func (in UpdateShipmentInput) columns() (map[string]interface{}, error) {
	p := newPatchBuilder()
	trim := strings.TrimSpace

	// Status is checked first so an unknown value never reaches the store.
	if in.Status.IsSet() {
		raw, _ := in.Status.Get()
		status, ok := shipment.ParseStatus(raw)
		if !ok {
			return nil, apierr.Validation("Invalid status. Must be one of: " + shipment.StatusList())
		}
		p.cols["status"] = status
	}

	p.requiredText("sender_name", "senderName", in.SenderName, trim)
	p.requiredText("sender_email", "senderEmail", in.SenderEmail, normalizeEmail)
	p.requiredText("sender_phone", "senderPhone", in.SenderPhone, trim)
	p.requiredText("sender_address", "senderAddress", in.SenderAddress, trim)
	p.requiredText("sender_city", "senderCity", in.SenderCity, trim)
	p.requiredText("sender_country", "senderCountry", in.SenderCountry, trim)
	p.nullableText("sender_zip_code", in.SenderZipCode)
	p.nullableText("sender_company_name", in.SenderCompanyName)
	p.nullableText("sender_alternate_phone", in.SenderAlternatePhone)

	p.requiredText("receiver_name", "receiverName", in.ReceiverName, trim)
	p.requiredText("receiver_email", "receiverEmail", in.ReceiverEmail, normalizeEmail)
	p.requiredText("receiver_phone", "receiverPhone", in.ReceiverPhone, trim)
	p.requiredText("receiver_address", "receiverAddress", in.ReceiverAddress, trim)
	p.requiredText("receiver_city", "receiverCity", in.ReceiverCity, trim)
	p.requiredText("receiver_country", "receiverCountry", in.ReceiverCountry, trim)
	p.nullableText("receiver_zip_code", in.ReceiverZipCode)
	p.nullableText("receiver_company_name", in.ReceiverCompanyName)
	p.nullableText("receiver_alternate_phone", in.ReceiverAlternatePhone)

	p.requiredText("package_dimensions", "packageDimensions", in.PackageDimensions, trim)
	p.requiredText("package_description", "packageDescription", in.PackageDescription, trim)
	p.flag("package_is_fragile", "packageIsFragile", in.PackageIsFragile)
	p.flag("package_requires_signature", "packageRequiresSignature", in.PackageRequiresSignature)

	p.requiredText("origin_address", "originAddress", in.OriginAddress, trim)
	p.requiredText("origin_city", "originCity", in.OriginCity, trim)
	p.requiredText("origin_country", "originCountry", in.OriginCountry, trim)
	p.nullableText("origin_zip_code", in.OriginZipCode)

	p.requiredText("destination_address", "destinationAddress", in.DestinationAddress, trim)
	p.requiredText("destination_city", "destinationCity", in.DestinationCity, trim)
	p.requiredText("destination_country", "destinationCountry", in.DestinationCountry, trim)
	p.nullableText("destination_zip_code", in.DestinationZipCode)

	if p.err != nil {
		return nil, p.err
	}

	if in.PackageWeightKg.IsSet() {
		w, ok := in.PackageWeightKg.Get()
		if !ok || w < 0 {
			return nil, apierr.Validation("Package weight must be a non-negative number")
		}
		p.cols["package_weight_kg"] = w
	}
	if in.PackageDeclaredValue.IsSet() {
		if v, ok := in.PackageDeclaredValue.Get(); ok {
			if v < 0 {
				return nil, apierr.Validation("Declared value cannot be negative")
			}
			p.cols["package_declared_value"] = v
		} else {
			p.cols["package_declared_value"] = nil
		}
	}
	if in.PackageQuantity.IsSet() {
		q, ok := in.PackageQuantity.Get()
		if !ok || q < 1 {
			return nil, apierr.Validation("Package quantity must be at least 1")
		}
		p.cols["package_quantity"] = q
	}

	if in.EstimatedDelivery.IsSet() {
		raw, _ := in.EstimatedDelivery.Get()
		eta, ok := parseDeliveryDate(raw)
		if !ok {
			return nil, apierr.Validation("Valid estimated delivery date is required")
		}
		p.cols["estimated_delivery"] = eta
	}

	if in.CurrentLocation.IsSet() {
		if loc, ok := in.CurrentLocation.Get(); ok {
			p.cols["current_location"] = shipment.NewLocationColumn(&loc)
		} else {
			p.cols["current_location"] = shipment.NewLocationColumn(nil)
		}
	}

	return p.cols, nil
}

// trackingPatch keeps the writes that exist on the tracking table.
func trackingPatch(cols map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(cols))
	for col, v := range cols {
		if _, ok := shipment.TrackingColumns[col]; ok {
			out[col] = v
		}
	}
	return out
}
