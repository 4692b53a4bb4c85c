package ledgerclient

// Contract ABIs, trimmed to the functions this client actually calls,
// grounded on the shape of SAGE's AgentCardRegistryABI (a JSON ABI string
// parsed once at client construction via accounts/abi.JSON).

const identityRegistryABI = `[
  {"type":"function","name":"registerAgent","stateMutability":"nonpayable",
   "inputs":[{"name":"domain","type":"string"}],
   "outputs":[{"name":"agentId","type":"uint64"}]},
  {"type":"function","name":"resolveByAddress","stateMutability":"view",
   "inputs":[{"name":"addr","type":"address"}],
   "outputs":[{"name":"agentId","type":"uint64"},{"name":"domain","type":"string"},{"name":"exists","type":"bool"}]},
  {"type":"function","name":"resolveByDomain","stateMutability":"view",
   "inputs":[{"name":"domain","type":"string"}],
   "outputs":[{"name":"agentId","type":"uint64"},{"name":"addr","type":"address"},{"name":"exists","type":"bool"}]}
]`

const reputationRegistryABI = `[
  {"type":"function","name":"submitRating","stateMutability":"nonpayable",
   "inputs":[{"name":"rateeId","type":"uint64"},{"name":"rating","type":"uint8"}],
   "outputs":[]},
  {"type":"function","name":"getRating","stateMutability":"view",
   "inputs":[{"name":"raterId","type":"uint64"},{"name":"rateeId","type":"uint64"}],
   "outputs":[{"name":"rating","type":"uint8"},{"name":"exists","type":"bool"}]}
]`

const validationRegistryABI = `[
  {"type":"function","name":"requestValidation","stateMutability":"nonpayable",
   "inputs":[{"name":"validatorId","type":"uint64"},{"name":"sellerId","type":"uint64"},{"name":"dataHash","type":"bytes32"}],
   "outputs":[]},
  {"type":"function","name":"respondValidation","stateMutability":"nonpayable",
   "inputs":[{"name":"dataHash","type":"bytes32"},{"name":"score","type":"uint8"}],
   "outputs":[]},
  {"type":"function","name":"getValidationResponse","stateMutability":"view",
   "inputs":[{"name":"dataHash","type":"bytes32"}],
   "outputs":[{"name":"score","type":"uint8"},{"name":"exists","type":"bool"}]},
  {"type":"function","name":"getValidationRequest","stateMutability":"view",
   "inputs":[{"name":"dataHash","type":"bytes32"}],
   "outputs":[
     {"name":"validatorId","type":"uint64"},
     {"name":"sellerId","type":"uint64"},
     {"name":"expiry","type":"uint64"},
     {"name":"responded","type":"bool"}
   ]}
]`

const tokenABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"balance","type":"uint256"}]},
  {"type":"function","name":"authorizationState","stateMutability":"view",
   "inputs":[{"name":"authorizer","type":"address"},{"name":"nonce","type":"bytes32"}],
   "outputs":[{"name":"used","type":"bool"}]},
  {"type":"function","name":"transferWithAuthorization","stateMutability":"nonpayable",
   "inputs":[
     {"name":"from","type":"address"},
     {"name":"to","type":"address"},
     {"name":"value","type":"uint256"},
     {"name":"validAfter","type":"uint256"},
     {"name":"validBefore","type":"uint256"},
     {"name":"nonce","type":"bytes32"},
     {"name":"v","type":"uint8"},
     {"name":"r","type":"bytes32"},
     {"name":"s","type":"bytes32"}
   ],
   "outputs":[]}
]`
