// Package docs holds the OpenAPI document of the pricing API served under
// /swagger. Regenerate it with `swag init -g cmd/server/main.go` after
// changing handler annotations.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/pricing/calculate": {
            "post": {
                "description": "Apply tier, price rule and promotion discounts to one product for one customer",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pricing"
                ],
                "summary": "Calculate the price of one product",
                "operationId": "calculatePrice",
                "parameters": [
                    {
                        "description": "Price calculation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/pricing.CalculatePriceRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.APIResponse-pricing_PriceCalculationResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/pricing/calculate-batch": {
            "post": {
                "description": "Price every line of an order and spread at most one promotion across the eligible lines",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pricing"
                ],
                "summary": "Calculate the prices of an order",
                "operationId": "calculatePrices",
                "parameters": [
                    {
                        "description": "Batch price calculation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/pricing.CalculatePricesRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.APIResponse-pricing_OrderPriceResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "413": {
                        "description": "Request Entity Too Large",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/pricing/promotions/validate": {
            "post": {
                "description": "Check a promotion code against a customer and order total. An inapplicable code returns valid=false with the reason.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "promotions"
                ],
                "summary": "Validate a promotion code",
                "operationId": "validatePromotion",
                "parameters": [
                    {
                        "description": "Promotion validation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/pricing.ValidatePromotionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.APIResponse-pricing_PromotionValidationResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/pricing/customers/{id}/promotions": {
            "get": {
                "description": "List the promotions without a code that a customer qualifies for, including those inherited from a parent customer",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "promotions"
                ],
                "summary": "List available promotions",
                "operationId": "getAvailablePromotions",
                "parameters": [
                    {
                        "type": "string",
                        "format": "uuid",
                        "description": "Customer ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.APIResponse-array_pricing_PromotionResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/pricing/promotions/{id}/usages": {
            "post": {
                "description": "Record an order's use of a promotion. A first recording answers 201, a replay of the same order 200 and a reached cap 409.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "promotions"
                ],
                "summary": "Record a promotion usage",
                "operationId": "recordPromotionUsage",
                "parameters": [
                    {
                        "type": "string",
                        "format": "uuid",
                        "description": "Promotion ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Usage request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/pricing.RecordUsageRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.APIResponse-pricing_UsageResponse"
                        }
                    },
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.APIResponse-pricing_UsageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/handler.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        }
    },
    "definitions": {
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "example": "ERR_VALIDATION"
                },
                "message": {
                    "type": "string"
                },
                "request_id": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string",
                    "format": "date-time"
                },
                "details": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ValidationDetail"
                    }
                }
            }
        },
        "dto.ValidationDetail": {
            "type": "object",
            "properties": {
                "field": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "handler.APIResponse-array_pricing_PromotionResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "data": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/pricing.PromotionResponse"
                    }
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                }
            }
        },
        "handler.APIResponse-pricing_OrderPriceResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "data": {
                    "$ref": "#/definitions/pricing.OrderPriceResponse"
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                }
            }
        },
        "handler.APIResponse-pricing_PriceCalculationResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "data": {
                    "$ref": "#/definitions/pricing.PriceCalculationResponse"
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                }
            }
        },
        "handler.APIResponse-pricing_PromotionValidationResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "data": {
                    "$ref": "#/definitions/pricing.PromotionValidationResponse"
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                }
            }
        },
        "handler.APIResponse-pricing_UsageResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "data": {
                    "$ref": "#/definitions/pricing.UsageResponse"
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                }
            }
        },
        "handler.ErrorResponse": {
            "description": "Standard error response",
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean",
                    "example": false
                },
                "error": {
                    "$ref": "#/definitions/dto.ErrorInfo"
                }
            }
        },
        "pricing.AppliedPromotionResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "code": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                },
                "discount_amount": {
                    "type": "string",
                    "example": "85.50"
                }
            }
        },
        "pricing.CalculatePriceRequest": {
            "type": "object",
            "required": [
                "customer_id",
                "product_id",
                "quantity"
            ],
            "properties": {
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "customer_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "minimum": 1,
                    "example": 5
                },
                "promotion_code": {
                    "type": "string",
                    "maxLength": 50,
                    "example": "SAVE20"
                }
            }
        },
        "pricing.CalculatePricesRequest": {
            "type": "object",
            "required": [
                "customer_id",
                "items"
            ],
            "properties": {
                "customer_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "items": {
                    "type": "array",
                    "minItems": 1,
                    "maxItems": 500,
                    "items": {
                        "$ref": "#/definitions/pricing.LineItemRequest"
                    }
                },
                "promotion_code": {
                    "type": "string",
                    "maxLength": 50
                }
            }
        },
        "pricing.LineItemRequest": {
            "type": "object",
            "required": [
                "product_id",
                "quantity"
            ],
            "properties": {
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer",
                    "minimum": 1,
                    "example": 2
                }
            }
        },
        "pricing.OrderPriceResponse": {
            "type": "object",
            "properties": {
                "lines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/pricing.PriceCalculationResponse"
                    }
                },
                "subtotal": {
                    "type": "string",
                    "example": "85.50"
                },
                "total_discount": {
                    "type": "string",
                    "example": "85.50"
                },
                "total": {
                    "type": "string",
                    "example": "85.50"
                },
                "applied_promotion": {
                    "$ref": "#/definitions/pricing.AppliedPromotionResponse"
                },
                "promotion_reason": {
                    "type": "string"
                },
                "promotion_message": {
                    "type": "string"
                }
            }
        },
        "pricing.PriceCalculationResponse": {
            "type": "object",
            "properties": {
                "product_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "quantity": {
                    "type": "integer"
                },
                "base_price": {
                    "type": "string",
                    "example": "85.50"
                },
                "tier_discount_percent": {
                    "type": "string",
                    "example": "85.50"
                },
                "tier_discount_amount": {
                    "type": "string",
                    "example": "85.50"
                },
                "rule_discount_percent": {
                    "type": "string",
                    "example": "85.50"
                },
                "rule_discount_amount": {
                    "type": "string",
                    "example": "85.50"
                },
                "promotion_discount_percent": {
                    "type": "string",
                    "example": "85.50"
                },
                "promotion_discount_amount": {
                    "type": "string",
                    "example": "85.50"
                },
                "final_unit_price": {
                    "type": "string",
                    "example": "85.50"
                },
                "line_total": {
                    "type": "string",
                    "example": "85.50"
                },
                "total_discount": {
                    "type": "string",
                    "example": "85.50"
                },
                "total_discount_percent": {
                    "type": "string",
                    "example": "85.50"
                },
                "applied_rule_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "applied_promotion_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "promotion_code": {
                    "type": "string"
                },
                "promotion_reason": {
                    "type": "string",
                    "example": "minimum_not_met"
                },
                "promotion_message": {
                    "type": "string"
                }
            }
        },
        "pricing.PromotionResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "format": "uuid"
                },
                "code": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "type": {
                    "type": "string",
                    "example": "percentage_discount"
                },
                "value": {
                    "type": "string",
                    "example": "85.50"
                },
                "buy_quantity": {
                    "type": "integer"
                },
                "get_quantity": {
                    "type": "integer"
                },
                "minimum_order_amount": {
                    "type": "string",
                    "example": "85.50"
                },
                "maximum_discount_amount": {
                    "type": "string",
                    "example": "85.50"
                },
                "start_date": {
                    "type": "string",
                    "format": "date-time"
                },
                "end_date": {
                    "type": "string",
                    "format": "date-time"
                },
                "requires_code": {
                    "type": "boolean"
                },
                "can_stack_with_other_promotions": {
                    "type": "boolean"
                },
                "can_stack_with_tier_pricing": {
                    "type": "boolean"
                },
                "inherited_from": {
                    "type": "string",
                    "format": "uuid"
                }
            }
        },
        "pricing.PromotionValidationResponse": {
            "type": "object",
            "properties": {
                "valid": {
                    "type": "boolean"
                },
                "reason": {
                    "type": "string",
                    "example": "customer_limit_reached"
                },
                "message": {
                    "type": "string"
                },
                "estimated_discount": {
                    "type": "string",
                    "example": "85.50"
                },
                "promotion": {
                    "$ref": "#/definitions/pricing.PromotionResponse"
                }
            }
        },
        "pricing.RecordUsageRequest": {
            "type": "object",
            "required": [
                "customer_id",
                "order_id"
            ],
            "properties": {
                "customer_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "order_id": {
                    "type": "string",
                    "format": "uuid"
                }
            }
        },
        "pricing.UsageResponse": {
            "type": "object",
            "properties": {
                "promotion_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "customer_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "order_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "outcome": {
                    "type": "string",
                    "example": "recorded"
                }
            }
        },
        "pricing.ValidatePromotionRequest": {
            "type": "object",
            "required": [
                "code",
                "customer_id"
            ],
            "properties": {
                "code": {
                    "type": "string",
                    "maxLength": 50,
                    "example": "SAVE20"
                },
                "customer_id": {
                    "type": "string",
                    "format": "uuid"
                },
                "order_total": {
                    "type": "string",
                    "example": "85.50"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Pricing Engine API",
	Description:      "Tier, price rule and promotion pricing for B2B pharmaceutical orders",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
