package main

// General API documentation for swaggo. Run `make swagger-gen` to regenerate docs.
//
// @title           localgptd API
// @version         1.0
// @description     HTTP API for configuration-driven model loading and text generation.
//
// @contact.name   localgptd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
