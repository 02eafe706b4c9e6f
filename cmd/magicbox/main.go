// Magicbox serves the models declared in a schema file as HTTP resources
// that can be filtered, sorted, aggregated and joined from the query string.
//
// Usage:
//
//	# Start the server with the default configuration file
//	magicbox serve
//
//	# Start with a custom configuration file
//	magicbox serve --config /etc/magicbox/magicbox.yaml
//
//	# Show the query and SQL a query string translates to
//	magicbox translate person 'filters[age]=>=18&sort[age]=desc'
//
//	# Check a schema file
//	magicbox schema validate ./schema.yaml
//
//	# Show version information
//	magicbox version
package main

func main() {
	Execute()
}
