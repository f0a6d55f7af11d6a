// Package design describes the public HTTP contract of the inquiry API in
// the goa DSL. The handlers in internal/services implement it by hand.
package design

import (
	. "goa.design/goa/v3/dsl"
)

var _ = API("urja", func() {
	Title("Urja Contact API")
	Description("Contact form intake: stores inquiries and emails the operator")
	Version("1.0.0")
	Server("api", func() {
		Host("localhost", func() {
			URI("http://localhost:5000")
		})
	})
})

var StaffAuth = JWTSecurity("jwt", func() {
	Description("HS256 token minted with inquiryctl token")
	Scope("staff", "Read stored inquiries")
})

// Health check
var _ = Service("health", func() {
	Description("Health check service")
	Method("check", func() {
		Result(HealthResult)
		HTTP(func() {
			GET("/health")
			Response(StatusOK)
		})
	})
})

var HealthResult = ResultType("application/vnd.urja.health", "HealthResult", func() {
	Attribute("status", String, "Service status", func() {
		Enum("healthy", "unhealthy")
	})
	Attribute("service", String, "Service name")
	Attribute("database", String, "Database reachability", func() {
		Enum("up", "down")
	})
	Attribute("notifications", String, "Whether the email transport is configured", func() {
		Enum("enabled", "disabled")
	})
	Required("status", "service", "database", "notifications")
})

var _ = Service("inquiry", func() {
	Description("Contact form submissions")
	Error("bad_request", ErrorResult, "Missing or invalid fields")
	Error("storage_unavailable", ErrorResult, "The inquiry could not be saved", func() {
		Temporary()
	})

	Method("submit", func() {
		Description("Store an inquiry and notify the operator. A stored inquiry whose notification failed is still accepted.")
		Payload(SubmitPayload)
		Result(SubmitResult)
		HTTP(func() {
			POST("/api/v1/inquiries")
			Response(StatusCreated)
			Response(StatusAccepted, func() {
				Tag("status", "notification_failed")
			})
			Response("bad_request", StatusBadRequest)
			Response("storage_unavailable", StatusServiceUnavailable)
		})
	})

	Method("show", func() {
		Description("Read back a stored inquiry")
		Security(StaffAuth, func() {
			Scope("staff")
		})
		Payload(func() {
			Token("token", String, "Staff JWT")
			Attribute("id", String, "Inquiry ID")
			Required("token", "id")
		})
		Result(InquiryResult)
		Error("unauthorized", ErrorResult)
		Error("not_found", ErrorResult)
		HTTP(func() {
			GET("/api/v1/inquiries/{id}")
			Response(StatusOK)
			Response("unauthorized", StatusUnauthorized)
			Response("not_found", StatusNotFound)
		})
	})
})

var SubmitPayload = Type("SubmitPayload", func() {
	Attribute("name", String, "Contact name", func() {
		MinLength(1)
		MaxLength(100)
	})
	Attribute("company", String, "Company", func() {
		MinLength(1)
		MaxLength(100)
	})
	Attribute("email", String, "Reply address", func() {
		Format(FormatEmail)
		MaxLength(254)
	})
	Attribute("phone", String, "Phone number", func() {
		MinLength(1)
		MaxLength(20)
	})
	Attribute("requirement", String, "Free-text requirement; line breaks are kept", func() {
		MinLength(1)
		MaxLength(5000)
	})
	Required("name", "company", "email", "phone", "requirement")
})

var SubmitResult = ResultType("application/vnd.urja.submission", "SubmitResult", func() {
	Attribute("id", String, "Inquiry ID")
	Attribute("status", String, "Submission outcome", func() {
		Enum("notified", "notification_failed")
	})
	Attribute("notified", Boolean, "Whether the operator was emailed")
	Attribute("notification_error", String, "Error code when the email was not sent", func() {
		Enum("NOT_CONFIGURED", "TRANSPORT_REJECTED")
	})
	Attribute("message", String, "Message for the submitter")
	Required("id", "status", "notified", "message")
})

var InquiryResult = ResultType("application/vnd.urja.inquiry", "InquiryResult", func() {
	Attribute("id", String)
	Attribute("name", String)
	Attribute("company", String)
	Attribute("email", String)
	Attribute("phone", String)
	Attribute("requirement", String)
	Attribute("created_at", String, func() {
		Format(FormatDateTime)
	})
	Attribute("submitted_at", String, "Submission time in India Standard Time")
	Required("id", "name", "company", "email", "phone", "requirement", "created_at", "submitted_at")
})
